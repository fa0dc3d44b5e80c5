package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacondata/beacon/internal/health"
)

func TestEncode(t *testing.T) {
	refs := []health.EventRef{
		{Arn: "arn:aws:health:us-east-1::event/EC2/AWS_EC2_MAINTENANCE/a", ScopeCode: health.ScopeAccountSpecific},
		{Arn: "arn:aws:health:global::event/IAM/AWS_IAM_OPERATIONAL_ISSUE/b", ScopeCode: health.ScopePublic},
	}

	data, err := Encode(refs)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3, "header + 2 refs")
	assert.Equal(t, "eventArn,eventScopeCode", lines[0])
	assert.Equal(t, "arn:aws:health:global::event/IAM/AWS_IAM_OPERATIONAL_ISSUE/b,PUBLIC", lines[2])
}

func TestEncode_Empty(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "eventArn,eventScopeCode", strings.TrimRight(string(data), "\n"),
		"empty manifest should be header only")
}

func TestRoundTrip(t *testing.T) {
	refs := []health.EventRef{
		{Arn: "arn:aws:health:us-east-1::event/EC2/X/1", ScopeCode: health.ScopeAccountSpecific},
		{Arn: "arn:aws:health:us-west-2::event/S3/Y/2", ScopeCode: health.ScopePublic},
		{Arn: "arn:aws:health:eu-west-1::event/RDS/Z/3", ScopeCode: health.ScopeNone},
	}

	data, err := Encode(refs)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, refs, decoded)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte(""))
	assert.Error(t, err, "empty input should fail")

	_, err = Decode([]byte("wrong,header\narn,PUBLIC\n"))
	assert.Error(t, err, "wrong header should fail")
}
