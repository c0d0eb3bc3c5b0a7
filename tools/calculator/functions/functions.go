// Package functions provides the math functions available to calculator
// expressions beyond govaluate's built-in operators.
package functions

import (
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
)

// Functions is the expression function table keyed by call name.
var Functions = map[string]govaluate.ExpressionFunction{
	"abs":   unary(math.Abs),
	"sqrt":  unary(math.Sqrt),
	"cbrt":  unary(math.Cbrt),
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  unary(math.Asin),
	"acos":  unary(math.Acos),
	"atan":  unary(math.Atan),
	"exp":   unary(math.Exp),
	"ln":    unary(math.Log),
	"log2":  unary(math.Log2),
	"log10": unary(math.Log10),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"round": unary(math.Round),
	"pow":   binary(math.Pow),
	"max":   binary(math.Max),
	"min":   binary(math.Min),
	"mod":   binary(math.Mod),
	"atan2": binary(math.Atan2),
}

func unary(fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expects 1 argument, got %d", len(args))
		}
		v, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("expects a number, got %T", args[0])
		}
		return fn(v), nil
	}
}

func binary(fn func(float64, float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("expects 2 arguments, got %d", len(args))
		}
		a, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("expects a number, got %T", args[0])
		}
		b, ok := args[1].(float64)
		if !ok {
			return nil, fmt.Errorf("expects a number, got %T", args[1])
		}
		return fn(a, b), nil
	}
}
