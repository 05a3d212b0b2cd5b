package registry

// Builtin returns the registry of supported AWS resource kinds.
//
// Item and cursor paths mirror each service's wire shape: query-protocol
// responses (ec2, rds) address the decoded XML tree, json-protocol responses
// address the response document directly. A path of "." addresses the item
// itself, for list operations that return bare strings.
func Builtin() *Registry {
	r := New()

	services := []ServiceDescriptor{
		{ID: "ec2", EndpointPrefix: "ec2", SigningName: "ec2", Protocol: ProtocolQuery, APIVersion: "2016-11-15"},
		{ID: "rds", EndpointPrefix: "rds", SigningName: "rds", Protocol: ProtocolQuery, APIVersion: "2014-10-31"},
		{ID: "lambda", EndpointPrefix: "lambda", SigningName: "lambda", Protocol: ProtocolRESTJSON},
		{ID: "dynamodb", EndpointPrefix: "dynamodb", SigningName: "dynamodb", Protocol: ProtocolJSON10, TargetPrefix: "DynamoDB_20120810"},
		{ID: "sqs", EndpointPrefix: "sqs", SigningName: "sqs", Protocol: ProtocolJSON10, TargetPrefix: "AmazonSQS"},
		{ID: "logs", EndpointPrefix: "logs", SigningName: "logs", Protocol: ProtocolJSON11, TargetPrefix: "Logs_20140328"},
	}
	for _, sd := range services {
		mustRegisterService(r, sd)
	}

	mustRegister(r, ResourceKind{
		ID:      "ec2-instances",
		Name:    "EC2 Instances",
		Service: "ec2",
		List: OperationSpec{
			Service:   "ec2",
			Operation: "DescribeInstances",
			Pagination: &PaginationSpec{
				CursorParam:   "NextToken",
				CursorPath:    "nextToken",
				PageSizeParam: "MaxResults",
				PageSize:      100,
			},
		},
		Describe:      &OperationSpec{Service: "ec2", Operation: "DescribeInstances"},
		DescribeParam: "InstanceId.1",
		ItemsPath:     "reservationSet.item[*].instancesSet.item[*]",
		KeyPath:       "instanceId",
		Columns: []Column{
			{Label: "Instance ID", Path: "instanceId"},
			{Label: "Type", Path: "instanceType"},
			{Label: "State", Path: "instanceState.name"},
			{Label: "AZ", Path: "placement.availabilityZone"},
			{Label: "Private IP", Path: "privateIpAddress"},
			{Label: "Public IP", Path: "ipAddress"},
			{Label: "Security Groups", Path: "groupSet.item[*].groupName"},
			{Label: "Launched", Path: "launchTime", Formats: []string{"timestamp"}},
		},
		Actions: []Action{
			{
				ID: "start", Label: "Start instance",
				Bindings: []Binding{{Param: "InstanceId.1", FieldPath: "instanceId"}},
				Spec:     OperationSpec{Service: "ec2", Operation: "StartInstances"},
			},
			{
				ID: "stop", Label: "Stop instance", Confirm: true,
				Bindings: []Binding{{Param: "InstanceId.1", FieldPath: "instanceId"}},
				Spec:     OperationSpec{Service: "ec2", Operation: "StopInstances"},
			},
			{
				ID: "reboot", Label: "Reboot instance", Confirm: true,
				Bindings: []Binding{{Param: "InstanceId.1", FieldPath: "instanceId"}},
				Spec:     OperationSpec{Service: "ec2", Operation: "RebootInstances"},
			},
			{
				ID: "terminate", Label: "Terminate instance", Destructive: true, Confirm: true,
				Bindings: []Binding{{Param: "InstanceId.1", FieldPath: "instanceId"}},
				Spec:     OperationSpec{Service: "ec2", Operation: "TerminateInstances"},
			},
		},
	})

	mustRegister(r, ResourceKind{
		ID:      "ebs-volumes",
		Name:    "EBS Volumes",
		Service: "ec2",
		List: OperationSpec{
			Service:   "ec2",
			Operation: "DescribeVolumes",
			Pagination: &PaginationSpec{
				CursorParam:   "NextToken",
				CursorPath:    "nextToken",
				PageSizeParam: "MaxResults",
				PageSize:      100,
			},
		},
		Describe:      &OperationSpec{Service: "ec2", Operation: "DescribeVolumes"},
		DescribeParam: "VolumeId.1",
		ItemsPath:     "volumeSet.item[*]",
		KeyPath:       "volumeId",
		Columns: []Column{
			{Label: "Volume ID", Path: "volumeId"},
			{Label: "Size (GiB)", Path: "size"},
			{Label: "Type", Path: "volumeType"},
			{Label: "State", Path: "status"},
			{Label: "AZ", Path: "availabilityZone"},
			{Label: "Attached To", Path: "attachmentSet.item[*].instanceId"},
			{Label: "Created", Path: "createTime", Formats: []string{"timestamp"}},
		},
		Actions: []Action{
			{
				ID: "delete", Label: "Delete volume", Destructive: true, Confirm: true,
				Bindings: []Binding{{Param: "VolumeId", FieldPath: "volumeId"}},
				Spec:     OperationSpec{Service: "ec2", Operation: "DeleteVolume"},
			},
		},
	})

	mustRegister(r, ResourceKind{
		ID:      "rds-instances",
		Name:    "RDS Instances",
		Service: "rds",
		List: OperationSpec{
			Service:   "rds",
			Operation: "DescribeDBInstances",
			Pagination: &PaginationSpec{
				CursorParam:   "Marker",
				CursorPath:    "Marker",
				PageSizeParam: "MaxRecords",
				PageSize:      100,
			},
		},
		Describe:      &OperationSpec{Service: "rds", Operation: "DescribeDBInstances"},
		DescribeParam: "DBInstanceIdentifier",
		ItemsPath:     "DBInstances.DBInstance[*]",
		KeyPath:       "DBInstanceIdentifier",
		Columns: []Column{
			{Label: "Identifier", Path: "DBInstanceIdentifier"},
			{Label: "Engine", Path: "Engine"},
			{Label: "Class", Path: "DBInstanceClass"},
			{Label: "Status", Path: "DBInstanceStatus"},
			{Label: "Endpoint", Path: "Endpoint.Address"},
			{Label: "Created", Path: "InstanceCreateTime", Formats: []string{"timestamp"}},
		},
		Actions: []Action{
			{
				ID: "start", Label: "Start database",
				Bindings: []Binding{{Param: "DBInstanceIdentifier", FieldPath: "DBInstanceIdentifier"}},
				Spec:     OperationSpec{Service: "rds", Operation: "StartDBInstance"},
			},
			{
				ID: "stop", Label: "Stop database", Confirm: true,
				Bindings: []Binding{{Param: "DBInstanceIdentifier", FieldPath: "DBInstanceIdentifier"}},
				Spec:     OperationSpec{Service: "rds", Operation: "StopDBInstance"},
			},
			{
				ID: "reboot", Label: "Reboot database", Confirm: true,
				Bindings: []Binding{{Param: "DBInstanceIdentifier", FieldPath: "DBInstanceIdentifier"}},
				Spec:     OperationSpec{Service: "rds", Operation: "RebootDBInstance"},
			},
		},
	})

	mustRegister(r, ResourceKind{
		ID:      "lambda-functions",
		Name:    "Lambda Functions",
		Service: "lambda",
		List: OperationSpec{
			Service:    "lambda",
			Operation:  "ListFunctions",
			HTTPMethod: "GET",
			HTTPPath:   "/2015-03-31/functions/",
			Pagination: &PaginationSpec{
				CursorParam:   "Marker",
				CursorPath:    "NextMarker",
				PageSizeParam: "MaxItems",
				PageSize:      50,
			},
		},
		Describe: &OperationSpec{
			Service:    "lambda",
			Operation:  "GetFunction",
			HTTPMethod: "GET",
			HTTPPath:   "/2015-03-31/functions/{FunctionName}",
		},
		DescribeParam: "FunctionName",
		ItemsPath:     "Functions[*]",
		KeyPath:       "FunctionName",
		Columns: []Column{
			{Label: "Function", Path: "FunctionName"},
			{Label: "Runtime", Path: "Runtime"},
			{Label: "Memory (MB)", Path: "MemorySize"},
			{Label: "Timeout (s)", Path: "Timeout"},
			{Label: "Code Size", Path: "CodeSize", Formats: []string{"bytes"}},
			{Label: "Modified", Path: "LastModified", Formats: []string{"timestamp"}},
		},
		Actions: []Action{
			{
				ID: "delete", Label: "Delete function", Destructive: true, Confirm: true,
				Bindings: []Binding{{Param: "FunctionName", FieldPath: "FunctionName"}},
				Spec: OperationSpec{
					Service:    "lambda",
					Operation:  "DeleteFunction",
					HTTPMethod: "DELETE",
					HTTPPath:   "/2015-03-31/functions/{FunctionName}",
				},
			},
		},
	})

	mustRegister(r, ResourceKind{
		ID:      "dynamodb-tables",
		Name:    "DynamoDB Tables",
		Service: "dynamodb",
		List: OperationSpec{
			Service:   "dynamodb",
			Operation: "ListTables",
			Pagination: &PaginationSpec{
				CursorParam:   "ExclusiveStartTableName",
				CursorPath:    "LastEvaluatedTableName",
				PageSizeParam: "Limit",
				PageSize:      100,
			},
		},
		Describe:      &OperationSpec{Service: "dynamodb", Operation: "DescribeTable"},
		DescribeParam: "TableName",
		ItemsPath:     "TableNames[*]",
		KeyPath:       ".",
		Columns: []Column{
			{Label: "Table", Path: "."},
		},
		Actions: []Action{
			{
				ID: "delete", Label: "Delete table", Destructive: true, Confirm: true,
				Bindings: []Binding{{Param: "TableName", FieldPath: "."}},
				Spec:     OperationSpec{Service: "dynamodb", Operation: "DeleteTable"},
			},
		},
	})

	mustRegister(r, ResourceKind{
		ID:      "sqs-queues",
		Name:    "SQS Queues",
		Service: "sqs",
		List: OperationSpec{
			Service:   "sqs",
			Operation: "ListQueues",
			Pagination: &PaginationSpec{
				CursorParam:   "NextToken",
				CursorPath:    "NextToken",
				PageSizeParam: "MaxResults",
				PageSize:      100,
			},
		},
		ItemsPath: "QueueUrls[*]",
		KeyPath:   ".",
		Columns: []Column{
			{Label: "Queue URL", Path: ".", Formats: []string{"truncate"}},
		},
		Actions: []Action{
			{
				ID: "purge", Label: "Purge queue", Destructive: true, Confirm: true,
				Bindings: []Binding{{Param: "QueueUrl", FieldPath: "."}},
				Spec:     OperationSpec{Service: "sqs", Operation: "PurgeQueue"},
			},
			{
				ID: "delete", Label: "Delete queue", Destructive: true, Confirm: true,
				Bindings: []Binding{{Param: "QueueUrl", FieldPath: "."}},
				Spec:     OperationSpec{Service: "sqs", Operation: "DeleteQueue"},
			},
		},
	})

	mustRegister(r, ResourceKind{
		ID:      "log-groups",
		Name:    "CloudWatch Log Groups",
		Service: "logs",
		List: OperationSpec{
			Service:   "logs",
			Operation: "DescribeLogGroups",
			Pagination: &PaginationSpec{
				CursorParam:   "nextToken",
				CursorPath:    "nextToken",
				PageSizeParam: "limit",
				PageSize:      50,
			},
		},
		ItemsPath: "logGroups[*]",
		KeyPath:   "logGroupName",
		Columns: []Column{
			{Label: "Log Group", Path: "logGroupName"},
			{Label: "Retention (days)", Path: "retentionInDays"},
			{Label: "Stored", Path: "storedBytes", Formats: []string{"bytes"}},
			{Label: "Created", Path: "creationTime", Formats: []string{"timestamp"}},
		},
		Actions: []Action{
			{
				ID: "delete", Label: "Delete log group", Destructive: true, Confirm: true,
				Bindings: []Binding{{Param: "logGroupName", FieldPath: "logGroupName"}},
				Spec:     OperationSpec{Service: "logs", Operation: "DeleteLogGroup"},
			},
		},
	})

	return r
}

func mustRegister(r *Registry, kind ResourceKind) {
	if err := r.Register(kind); err != nil {
		panic(err)
	}
}

func mustRegisterService(r *Registry, sd ServiceDescriptor) {
	if err := r.RegisterService(sd); err != nil {
		panic(err)
	}
}
