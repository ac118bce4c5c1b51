package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calculatorPage = `<html><head><script>var age = 1;</script></head><body>
<h1>Bortz Blood Age</h1>
<div class="rounded bg-primary-100 p-4">
  <p>Your biological age</p>
  <span class="text-4xl" id="result">52.3</span>
</div>
<p>Enter your values below.</p>
<strong>Chronological age: 56 years</strong>
</body></html>`

func TestFindCandidates(t *testing.T) {
	got, err := FindCandidates(strings.NewReader(calculatorPage))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.True(t, got[0].Container)
	assert.Equal(t, "div", got[0].Tag)
	assert.Equal(t, "Your biological age 52.3", got[0].Text)

	assert.False(t, got[1].Container)
	assert.Equal(t, "strong", got[1].Tag)
	assert.Equal(t, "Chronological age: 56 years", got[1].Text)
}

func TestOpenInDefaultBrowser(t *testing.T) {
	var opened string
	prev := openURL
	openURL = func(u string) { opened = u }
	t.Cleanup(func() { openURL = prev })

	OpenInDefaultBrowser("https://example.com/#a=1")
	assert.Equal(t, "https://example.com/#a=1", opened)
}
