package complexity

import "testing"

func TestIsComplexFormula(t *testing.T) {
	tests := []struct {
		formula string
		want    bool
	}{
		{"", false},
		{"A1+B1", false},
		{"SUM(A1:A10)", false},
		{"IF(A1>0,1,0)", false},
		{"IF(A1>0,IF(B1>0,1,0),2)", true},         // conditional inside conditional
		{"IF(IF(A1>0,1,0)=1,2,3)", true},          // conditional inside conditional
		{"SUM(IF(A1:A10>0,1,0))", false},          // plain function around one conditional
		{"ROUND(IF(A1>0,1,0),2)", false},          // plain function around one conditional
		{"IF(SUM(A1:A3)>0,1,0)", false},           // conditional around plain function
		{"IFERROR(IF(A1>0,1,0),0)", true},         // conditional inside conditional
		{"VLOOKUP(A1,B:C,2,FALSE)", true},         // lookup
		{"INDEX(A:A,MATCH(B1,C:C,0))", true},      // lookup
		{"XLOOKUP(A1,B:B,C:C)", true},             // lookup
		{"SUMPRODUCT(A1:A9,B1:B9)", true},         // aggregate-array
		{"COUNTIFS(A:A,\">0\",B:B,\"<5\")", true}, // aggregate-array
		{"SUM($A$1:$B$10)", true},                 // absolute multi-cell range
		{"$A$1+1", false},                         // absolute single cell
		{"=SUM(A1:A3)", false},                    // leading = tolerated
	}
	for _, tt := range tests {
		if got := IsComplexFormula(tt.formula); got != tt.want {
			t.Errorf("IsComplexFormula(%q) = %v, want %v", tt.formula, got, tt.want)
		}
	}
}
