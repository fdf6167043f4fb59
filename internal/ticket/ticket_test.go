package ticket

import (
	"fmt"
	"regexp"
	"testing"
	"time"
)

func TestNewNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(fmt.Sprintf(`^%s%d\d{6}$`, Prefix, time.Now().Year()))
	for i := 0; i < 100; i++ {
		n := NewNumber()
		if !pattern.MatchString(n) {
			t.Fatalf("NewNumber() = %q, want match for %s", n, pattern)
		}
	}
}
