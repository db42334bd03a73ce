package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribeDevice(t *testing.T) {
	t.Run("empty header is an unknown device", func(t *testing.T) {
		assert.Equal(t, "Unknown Device", DescribeDevice(""))
		assert.Equal(t, "Unknown Device", DescribeDevice("   "))
	})

	t.Run("desktop browser includes browser and OS", func(t *testing.T) {
		got := DescribeDevice("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		assert.Contains(t, got, "Chrome")
		assert.Contains(t, got, "on")
	})

	t.Run("mobile browser includes the platform", func(t *testing.T) {
		got := DescribeDevice("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
		assert.Contains(t, got, "on")
	})

	t.Run("result carries no stray whitespace", func(t *testing.T) {
		got := DescribeDevice("Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
		assert.Equal(t, got, strings.TrimSpace(got))
		assert.NotContains(t, got, "  ")
	})
}
