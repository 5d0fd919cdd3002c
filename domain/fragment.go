package domain

type FragmentKind uint8

const (
	// FragmentText carries generated text.
	FragmentText FragmentKind = iota + 1
	// FragmentError is the terminal element of a stream that failed. Its
	// Text is a diagnostic meant for the user, not model output.
	FragmentError
)

func (k FragmentKind) String() string {
	switch k {
	case FragmentText:
		return "fragment"
	case FragmentError:
		return "error"
	default:
		return "unknown"
	}
}

// Fragment is one element of a folded completion stream.
type Fragment struct {
	Kind FragmentKind
	Text string
	Err  *ServiceError
}

func TextFragment(text string) Fragment {
	return Fragment{Kind: FragmentText, Text: text}
}

// ErrorFragment folds err into a terminal fragment with its diagnostic text.
func ErrorFragment(err *ServiceError) Fragment {
	return Fragment{Kind: FragmentError, Text: err.Diagnostic(), Err: err}
}

func (f Fragment) IsError() bool {
	return f.Kind == FragmentError
}
