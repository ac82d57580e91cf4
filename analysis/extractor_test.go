package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAgreement = `This Agreement is made between Acme Corp (the Company) and John Smith, effective January 1, 2024.
The Company shall pay a fee of $500,000 by March 15, 2024.
Late payment incurs a penalty of $1,000.
Either party may terminate this agreement with 30 days notice.`

func TestExtractKeyInfo(t *testing.T) {
	info := ExtractKeyInfo(sampleAgreement)

	require.NotEmpty(t, info.Parties)
	assert.Equal(t, "Acme Corp", info.Parties[0])

	assert.Contains(t, info.Dates, "January 1, 2024")
	assert.Contains(t, info.Dates, "March 15, 2024")

	assert.Contains(t, info.Amounts, "500,000")
	assert.Contains(t, info.Amounts, "1,000")

	assert.Equal(t, []string{
		"The Company shall pay a fee of $500,000 by March 15, 2024.",
		"Late payment incurs a penalty of $1,000.",
	}, info.PaymentTerms)
	assert.Equal(t, []string{"Late payment incurs a penalty of $1,000."}, info.PenaltyClauses)
	assert.Equal(t, []string{"Either party may terminate this agreement with 30 days notice."}, info.TerminationClauses)
}

func TestExtractKeyInfoAmountStripsCurrencySign(t *testing.T) {
	info := ExtractKeyInfo("The Contractor owes $500,000 and is liable for all damages.")
	assert.Equal(t, []string{"500,000"}, info.Amounts)
}

func TestExtractKeyInfoPartiesDeduplicated(t *testing.T) {
	info := ExtractKeyInfo("Client: Alpha Co. Client: Alpha Co.")
	assert.Equal(t, []string{"Alpha Co"}, info.Parties)
}

func TestExtractKeyInfoDropsShortParties(t *testing.T) {
	info := ExtractKeyInfo("Client: AB.")
	assert.Empty(t, info.Parties)
}

func TestExtractKeyInfoDatesNotDeduplicated(t *testing.T) {
	info := ExtractKeyInfo("Signed 01/02/2024 and countersigned 01/02/2024.")
	assert.Equal(t, []string{"01/02/2024", "01/02/2024"}, info.Dates)
}

func TestExtractKeyInfoEmpty(t *testing.T) {
	info := ExtractKeyInfo("")
	assert.NotNil(t, info.Parties)
	assert.Empty(t, info.Parties)
	assert.Empty(t, info.Dates)
	assert.Empty(t, info.Amounts)
	assert.Empty(t, info.PaymentTerms)
}

func TestTopicSentencesCapped(t *testing.T) {
	text := "Payment one. Payment two. Payment three. Payment four."
	assert.Equal(t, []string{"Payment one.", "Payment two.", "Payment three."}, topicSentences(text, paymentTopicRe))
}
