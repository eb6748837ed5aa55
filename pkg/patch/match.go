package patch

// Matcher stands in for an expected argument whose exact value does not
// matter or cannot be spelled out.
type Matcher interface {
	Matches(v any) bool
	String() string
}

type anyMatcher struct{}

func (anyMatcher) Matches(any) bool { return true }
func (anyMatcher) String() string   { return "<ANY>" }

// Any matches every argument value.
var Any Matcher = anyMatcher{}

type funcMatcher struct {
	desc string
	fn   func(any) bool
}

func (m funcMatcher) Matches(v any) bool { return m.fn(v) }
func (m funcMatcher) String() string     { return "<" + m.desc + ">" }

// Match returns a matcher that accepts values for which fn returns
// true. desc is shown in failure messages.
func Match(desc string, fn func(any) bool) Matcher {
	return funcMatcher{desc: desc, fn: fn}
}
