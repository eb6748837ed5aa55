package sample

import (
	"strings"

	"github.com/unbound-force/spyunit/pkg/patch"
	"github.com/unbound-force/spyunit/pkg/unittest"
)

var greetSlot = patch.Method("sample.Greeter.Greet(string) string", (*Greeter).greet)

type Greeter struct {
	greeting string
}

func (g *Greeter) Greet(name string) string {
	return greetSlot.Fn()(g, name)
}

func (g *Greeter) greet(name string) string {
	return g.greeting + " " + name
}

func (g *Greeter) Welcome(names ...string) string {
	return g.Greet(strings.Join(names, " and "))
}

// Join is a package-level function.
func Join(sep string, parts ...string) (string, error) {
	return strings.Join(parts, sep), nil
}

type plain int

type GreeterTestCase struct {
	unittest.TestCase
}

func (c *GreeterTestCase) test_plain() {
	c.AssertEqual((&Greeter{greeting: "hi"}).Greet("bob"), "hi bob")
}

// test_patched checks the welcome message.
//
//unittest:patch "sample.Greeter.Greet(string) string"
func (c *GreeterTestCase) test_patched(spy *patch.Spy) {
	(&Greeter{}).Welcome("a", "b")
	spy.AssertCalledOnceWith("a and b")
}

func (c *GreeterTestCase) test_returns() error {
	for i := 0; i < 3; i++ {
		if i == 2 {
			return nil
		}
	}
	return nil
}

func (c *GreeterTestCase) helper() {}
