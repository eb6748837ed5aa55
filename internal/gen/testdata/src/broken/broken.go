package broken

import (
	"github.com/unbound-force/spyunit/pkg/patch"
	"github.com/unbound-force/spyunit/pkg/unittest"
)

type Thing struct{}

func (t *Thing) Do() {}

type BrokenTestCase struct {
	unittest.TestCase
}

//unittest:patch "broken.Thing.Missing()"
func (c *BrokenTestCase) test_unresolved(spy *patch.Spy) {}

//unittest:patch
func (c *BrokenTestCase) test_no_target(spy *patch.Spy) {}

func (c *BrokenTestCase) test_spy_without_marker(spy *patch.Spy) {}

func (c *BrokenTestCase) test_bad_params(n int) {}

func (c *BrokenTestCase) test_bad_results() int { return 0 }

//unittest:patch "broken.Thing.Do()"
func (c *BrokenTestCase) notATest() {}
