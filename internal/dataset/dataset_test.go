package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"simple", "A.B.MYJCL", false},
		{"national characters", "#SYS.$TEST.@JCL", false},
		{"lower case accepted", "hlq.jcl", false},
		{"hyphen inside qualifier", "SYS1.MY-LIB", false},
		{"empty", "", true},
		{"empty qualifier", "A..B", true},
		{"trailing dot", "A.B.", true},
		{"qualifier too long", "A.ABCDEFGHI", true},
		{"leading digit", "1ABC.JCL", true},
		{"invalid character", "A.B_C", true},
		{"too many qualifiers", strings.Repeat("A.", 22) + "A", true},
		{"too long overall", strings.Repeat("ABCDEFGH.", 5) + "ABCD", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateName(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSpecifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		wantErr bool
	}{
		{"A.B.MYJCL", false},
		{"MYJCL(JCLMEM3)", false},
		{"A.B.GDG(0)", false},
		{"A.B.GDG(-1)", false},
		{"A.B.GDG(+1)", false},
		{"A.B(MEMBER123)", true},
		{"A.B(1MEM)", true},
		{"A.B(MEM", true},
		{"A.B(MEM))", true},
		{"A.B()", true},
		{"(MEM)", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			err := ValidateSpecifier(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
