package unittest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTrim_InvokerFrameFromAnyFileName(t *testing.T) {
	all := Stack{
		{Function: "github.com/unbound-force/spyunit/pkg/unittest.(*TestCase).check", File: "testcase.go", Line: 132},
		{Function: "github.com/unbound-force/spyunit/pkg/unittest.(*TestCase).AssertEqual", File: "testcase.go", Line: 97},
		{Function: "example.com/shop.(*CartTestCase).test_total", File: "cart_cases.go", Line: 20},
		{Function: "example.com/shop.UnittestClasses.func3", File: "registry_gen.go", Line: 71},
		{Function: "github.com/unbound-force/spyunit/pkg/runner.(*Runner).invoke", File: "runner.go", Line: 230},
		{Function: "github.com/unbound-force/spyunit/pkg/runner.(*Runner).Run", File: "runner.go", Line: 166},
	}
	want := Stack{
		{Function: "example.com/shop.(*CartTestCase).test_total", File: "cart_cases.go", Line: 20},
	}
	if diff := cmp.Diff(want, trim(all)); diff != "" {
		t.Errorf("trim mismatch (-want +got):\n%s", diff)
	}
}

func TestTrim_KeepsUserHelpers(t *testing.T) {
	all := Stack{
		{Function: "example.com/shop.checkTotal", File: "helpers.go", Line: 8},
		{Function: "example.com/shop.(*CartTestCase).test_total", File: "cart_cases.go", Line: 20},
		{Function: "testing.tRunner", File: "testing.go", Line: 1690},
	}
	if diff := cmp.Diff(all[:2], trim(all)); diff != "" {
		t.Errorf("trim mismatch (-want +got):\n%s", diff)
	}
}
