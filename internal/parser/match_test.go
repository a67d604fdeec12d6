package parser

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/opd-scheduler/internal/model"
)

func doctor(name string, keywords ...string) model.Doctor {
	return model.Doctor{
		Base:     model.Base{ID: uuid.New()},
		Name:     name,
		Keywords: pq.StringArray(keywords),
	}
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"asish", "rajak"}, Tokens("Dr. Asish Rajak"))
	assert.Equal(t, []string{"moosa", "manik"}, Tokens("MOOSA MANIK"))
	assert.Nil(t, Tokens("Dr."))
}

func TestMatchSubsetGuarantee(t *testing.T) {
	m := NewMatcher()
	doctors := []model.Doctor{
		doctor("Dr. Asish Rajak"),
		doctor("Dr. Sameh"),
	}

	// Every token of the doctor's name present in the message wins,
	// regardless of how much other text surrounds it.
	got := m.Match("today asish rajak is on call with a very long unrelated message", doctors)
	require.NotNil(t, got)
	assert.Equal(t, "Dr. Asish Rajak", got.Name)
}

func TestMatchPrefixAndKeyword(t *testing.T) {
	m := NewMatcher()
	doctors := []model.Doctor{
		doctor("Dr. Abdul Azeez", "ortho"),
		doctor("Dr. Sameh"),
	}

	got := m.Match("abdul off today", doctors)
	require.NotNil(t, got)
	assert.Equal(t, "Dr. Abdul Azeez", got.Name)

	// Keyword alone is enough to tilt the score.
	got = m.Match("ortho clinic cancelled", doctors)
	require.NotNil(t, got)
	assert.Equal(t, "Dr. Abdul Azeez", got.Name)
}

func TestMatchNothing(t *testing.T) {
	m := NewMatcher()
	doctors := []model.Doctor{doctor("Dr. Sameh")}
	// The free-text path accepts any positive score, so only text with
	// zero character overlap stays unmatched.
	assert.Nil(t, m.Match("0123", doctors))
	assert.Nil(t, m.Match("", doctors))
}

func TestMatchNameField(t *testing.T) {
	m := NewMatcher()
	doctors := []model.Doctor{
		doctor("Dr. Asish Rajak"),
		doctor("Dr. Asish"),
		doctor("Dr. Moosa Manik"),
	}

	// Exact normalized match first.
	got := m.MatchNameField("dr asish rajak", doctors)
	require.NotNil(t, got)
	assert.Equal(t, "Dr. Asish Rajak", got.Name)

	// Strict subset: the shorter exact owner wins over the longer name.
	got = m.MatchNameField("Dr. Asish", doctors)
	require.NotNil(t, got)
	assert.Equal(t, "Dr. Asish", got.Name)

	// Partial name falls back to overlap against the smaller set.
	got = m.MatchNameField("Moosa", doctors)
	require.NotNil(t, got)
	assert.Equal(t, "Dr. Moosa Manik", got.Name)

	assert.Nil(t, m.MatchNameField("Dr. Nobody", doctors))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "jose garcia", normalizeName("Dr. José García"))
	assert.Equal(t, "asish rajak", normalizeName("DR.  Asish   Rajak!!"))
}

func TestSimilarityRatio(t *testing.T) {
	assert.InDelta(t, 1.0, similarityRatio("abc", "abc"), 1e-9)
	assert.InDelta(t, 0.0, similarityRatio("abc", "xyz"), 1e-9)
	// Matches difflib for the classic example.
	assert.InDelta(t, 0.75, similarityRatio("abcd", "bcde"), 1e-9)
}
