package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifyDuplicate_ExactMatchConfirmed(t *testing.T) {
	candidates := []PayloadCandidate{
		{ID: "l1", Raw: []byte(`{"email":"x@y.com","name":"X"}`)},
	}

	err := VerifyDuplicate(UniqueFieldEmail, "x@y.com", "", candidates)

	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "email", dup.Field)
}

func TestVerifyDuplicate_ContainmentFalsePositiveRejected(t *testing.T) {
	// The narrowing query is coarse; a substring hit in another field must
	// not count as a duplicate.
	candidates := []PayloadCandidate{
		{ID: "l1", Raw: []byte(`{"email":"other@z.com","notes":"mentioned x@y.com once"}`)},
	}

	require.NoError(t, VerifyDuplicate(UniqueFieldEmail, "x@y.com", "", candidates))
}

func TestVerifyDuplicate_CaseInsensitive(t *testing.T) {
	candidates := []PayloadCandidate{
		{ID: "l1", Raw: []byte(`{"email":"X@Y.com"}`)},
	}

	err := VerifyDuplicate(UniqueFieldEmail, "x@y.com", "", candidates)
	require.Error(t, err)
}

func TestVerifyDuplicate_UndecodablePayloadSkipped(t *testing.T) {
	candidates := []PayloadCandidate{
		{ID: "l1", Raw: []byte(`{broken`)},
		{ID: "l2", Raw: []byte(`{"email":"other@z.com"}`)},
	}

	require.NoError(t, VerifyDuplicate(UniqueFieldEmail, "x@y.com", "", candidates))
}

func TestVerifyDuplicate_ExcludeID(t *testing.T) {
	candidates := []PayloadCandidate{
		{ID: "l1", Raw: []byte(`{"phone":"+15550001"}`)},
	}

	require.NoError(t, VerifyDuplicate(UniqueFieldPhone, "+15550001", "l1", candidates))
	require.Error(t, VerifyDuplicate(UniqueFieldPhone, "+15550001", "l2", candidates))
}

func TestVerifyDuplicate_InvalidField(t *testing.T) {
	err := VerifyDuplicate(UniqueField("name"), "x", "", nil)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}
