package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimestampEncodings(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"epoch seconds", float64(1700000000), "2023-11-14T22:13:20Z"},
		{"epoch millis", float64(1700000000000), "2023-11-14T22:13:20Z"},
		{"epoch seconds string", "1700000000", "2023-11-14T22:13:20Z"},
		{"rfc3339", "2023-11-14T22:13:20Z", "2023-11-14T22:13:20Z"},
		{"rfc3339 offset", "2023-11-14T23:13:20+01:00", "2023-11-14T22:13:20Z"},
		{"rfc3339 nano", "2023-11-14T22:13:20.123456789Z", "2023-11-14T22:13:20Z"},
		{"lambda last modified", "2023-11-14T22:13:20.123+0000", "2023-11-14T22:13:20Z"},
		{"space separated", "2023-11-14 22:13:20", "2023-11-14T22:13:20Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Timestamp(tt.in))
		})
	}
}

func TestTimestampIdempotent(t *testing.T) {
	canonical := Timestamp(float64(1700000000))
	assert.Equal(t, canonical, Timestamp(canonical))
}

func TestTimestampUnparsablePassesThrough(t *testing.T) {
	assert.Equal(t, "not a time", Timestamp("not a time"))
	assert.Equal(t, "", Timestamp(""))
}

func TestBytes(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{float64(0), "0 B"},
		{float64(512), "512 B"},
		{float64(2048), "2.0 KiB"},
		{float64(5 * 1024 * 1024), "5.0 MiB"},
		{float64(3 * 1024 * 1024 * 1024), "3.0 GiB"},
		{"garbage", "garbage"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bytes(tt.in))
	}
}

func TestTruncate(t *testing.T) {
	short := "https://sqs.us-east-1.amazonaws.com/123/q"
	assert.Equal(t, short, Truncate(short))

	long := "https://sqs.us-east-1.amazonaws.com/123456789012/a-very-long-queue-name-that-keeps-going"
	got := Truncate(long)
	assert.Len(t, got, truncateLimit)
	assert.Contains(t, got, "...")
}

func TestFormatChainComposes(t *testing.T) {
	// Unknown hooks fall through, known hooks apply in order.
	got := FormatAll([]string{"unknown", "timestamp"}, float64(1700000000))
	assert.Equal(t, "2023-11-14T22:13:20Z", got)
}
