package complexity

import (
	"strings"

	"github.com/xuri/efp"
)

// Function classes that mark a formula as complex. Lookup and
// aggregate-array functions tend to defeat positional heuristics, and
// nested conditionals hide the value type of the cell.
var (
	conditionalFuncs = map[string]bool{
		"IF": true, "IFS": true, "SWITCH": true, "IFERROR": true, "IFNA": true,
	}
	lookupFuncs = map[string]bool{
		"VLOOKUP": true, "HLOOKUP": true, "XLOOKUP": true, "LOOKUP": true,
		"INDEX": true, "MATCH": true, "OFFSET": true, "INDIRECT": true,
	}
	aggregateArrayFuncs = map[string]bool{
		"SUMPRODUCT": true, "SUMIFS": true, "COUNTIFS": true,
		"AVERAGEIFS": true, "AGGREGATE": true, "MINIFS": true, "MAXIFS": true,
	}
)

// IsComplexFormula reports whether a formula uses constructs that make its
// cell hard to analyze structurally: a conditional nested inside another
// conditional, lookup functions, aggregate-array functions, or absolute
// multi-cell ranges. A conditional wrapped in a plain function (or the
// reverse) does not count as nesting.
func IsComplexFormula(formula string) bool {
	if formula == "" {
		return false
	}
	if !strings.HasPrefix(formula, "=") {
		formula = "=" + formula
	}
	parser := efp.ExcelParser()
	tokens := parser.Parse(formula)

	condDepth := 0
	var condStack []bool
	for _, tok := range tokens {
		switch tok.TType {
		case efp.TokenTypeFunction:
			switch tok.TSubType {
			case efp.TokenSubTypeStart:
				name := strings.ToUpper(tok.TValue)
				if lookupFuncs[name] || aggregateArrayFuncs[name] {
					return true
				}
				isCond := conditionalFuncs[name]
				if isCond {
					if condDepth > 0 {
						return true
					}
					condDepth++
				}
				condStack = append(condStack, isCond)
			case efp.TokenSubTypeStop:
				// Stop tokens carry no name, so the stack remembers which
				// opens were conditionals.
				if n := len(condStack); n > 0 {
					if condStack[n-1] {
						condDepth--
					}
					condStack = condStack[:n-1]
				}
			}
		case efp.TokenTypeOperand:
			if tok.TSubType == efp.TokenSubTypeRange && isAbsoluteMultiCellRange(tok.TValue) {
				return true
			}
		}
	}
	return false
}

// isAbsoluteMultiCellRange matches operands like $A$1:$B$10: a multi-cell
// range with anchored references.
func isAbsoluteMultiCellRange(ref string) bool {
	return strings.Contains(ref, ":") && strings.Contains(ref, "$")
}
