package transport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spyglass-dev/spyglass/extract"
)

const ec2Response = `<?xml version="1.0" encoding="UTF-8"?>
<DescribeInstancesResponse xmlns="http://ec2.amazonaws.com/doc/2016-11-15/">
  <requestId>abc-123</requestId>
  <reservationSet>
    <item>
      <reservationId>r-1</reservationId>
      <instancesSet>
        <item>
          <instanceId>i-aaa</instanceId>
          <instanceState><code>16</code><name>running</name></instanceState>
        </item>
        <item>
          <instanceId>i-bbb</instanceId>
          <instanceState><code>80</code><name>stopped</name></instanceState>
        </item>
      </instancesSet>
    </item>
  </reservationSet>
  <nextToken>tok-1</nextToken>
</DescribeInstancesResponse>`

func TestDecodeXMLEC2Shape(t *testing.T) {
	raw, err := decodeXML(strings.NewReader(ec2Response), "DescribeInstances")
	require.NoError(t, err)

	items := extract.Collect(raw, "reservationSet.item[*].instancesSet.item[*]")
	require.Len(t, items, 2)

	state, ok := extract.GetString(items[1], "instanceState.name")
	require.True(t, ok)
	assert.Equal(t, "stopped", state)

	token, ok := extract.GetString(raw, "nextToken")
	require.True(t, ok)
	assert.Equal(t, "tok-1", token)

	// request id metadata is stripped from the raw value
	_, ok = extract.Get(raw, "requestId")
	assert.False(t, ok)
}

const rdsResponse = `<DescribeDBInstancesResponse xmlns="http://rds.amazonaws.com/doc/2014-10-31/">
  <DescribeDBInstancesResult>
    <DBInstances>
      <DBInstance>
        <DBInstanceIdentifier>orders-db</DBInstanceIdentifier>
        <Engine>postgres</Engine>
      </DBInstance>
    </DBInstances>
    <Marker>page-2</Marker>
  </DescribeDBInstancesResult>
  <ResponseMetadata><RequestId>xyz</RequestId></ResponseMetadata>
</DescribeDBInstancesResponse>`

func TestDecodeXMLResultUnwrap(t *testing.T) {
	raw, err := decodeXML(strings.NewReader(rdsResponse), "DescribeDBInstances")
	require.NoError(t, err)

	// single-element list decodes to a bare value; wildcard stays lenient
	items := extract.Collect(raw, "DBInstances.DBInstance[*]")
	require.Len(t, items, 1)

	engine, ok := extract.GetString(items[0], "Engine")
	require.True(t, ok)
	assert.Equal(t, "postgres", engine)

	marker, ok := extract.GetString(raw, "Marker")
	require.True(t, ok)
	assert.Equal(t, "page-2", marker)
}

func TestDecodeXMLEmptySet(t *testing.T) {
	raw, err := decodeXML(strings.NewReader(
		`<DescribeVolumesResponse><volumeSet/></DescribeVolumesResponse>`), "DescribeVolumes")
	require.NoError(t, err)

	assert.Empty(t, extract.Collect(raw, "volumeSet.item[*]"))
}

func TestDecodeXMLMalformed(t *testing.T) {
	_, err := decodeXML(strings.NewReader(`<unclosed>`), "Whatever")
	assert.ErrorIs(t, err, ErrDecode)
}
