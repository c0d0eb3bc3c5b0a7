package calculator

import (
	"context"
	"fmt"
	"testing"
)

func Test(t *testing.T) {
	ctx := context.Background()
	tool := New()
	ret, err := tool.Run(ctx, NewInput("2+2", nil))
	if err != nil {
		t.Error(err)
	}
	switch value := ret.Result.(type) {
	case float64:
		if int(value) != 4 {
			t.Errorf("expecting 4, but got %.2f", value)
		}
	case int, int32, int64:
		t.Error("expecting float64, but got int")
	case bool:
		t.Error("expecting float64, but got bool")
	case string:
		t.Error("expecting float64, but got string")
	}
}

func TestFunctions(t *testing.T) {
	ctx := context.Background()
	tool := New()
	ret, err := tool.Run(ctx, NewInput("sqrt(16) + pow(2, 3)", nil))
	if err != nil {
		t.Fatal(err)
	}
	if value, ok := ret.Result.(float64); !ok || int(value) != 12 {
		t.Errorf("expecting 12, but got %v", ret.Result)
	}
}

func TestParams(t *testing.T) {
	ctx := context.Background()
	tool := New()
	ret, err := tool.Run(ctx, NewInput("x * pi", map[string]interface{}{"x": 2.0}))
	if err != nil {
		t.Fatal(err)
	}
	if value, ok := ret.Result.(float64); !ok || value < 6.28 || value > 6.29 {
		t.Errorf("expecting 2*pi, but got %v", ret.Result)
	}
}

func TestSyntaxError(t *testing.T) {
	ctx := context.Background()
	tool := New()
	if _, err := tool.Run(ctx, NewInput("2 +* 2", nil)); err == nil {
		t.Error("expecting a syntax error, but got nil")
	}
}

func TestDivisionByZero(t *testing.T) {
	ctx := context.Background()
	tool := New()
	if _, err := tool.Run(ctx, NewInput("1/0", nil)); err == nil {
		t.Error("expecting an error for 1/0, but got nil")
	}
}

func ExampleTool_Run() {
	ctx := context.Background()
	tool := New()
	ret, _ := tool.Run(ctx, NewInput("2+2", nil))
	fmt.Println(ret.Result)
	// Output:
	// 4
}
