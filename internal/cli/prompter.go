package cli

// Prompter abstracts the interactive questions asked by commands.
type Prompter interface {
	Select(label string, items []string, defaultValue string) (int, string, error)
	Prompt(label string) (string, error)
	Confirm(label string, defaultYes bool) (bool, error)
}

// nonInteractive refuses every question. It stands in for the real prompter
// when --non-interactive is set.
type nonInteractive struct{}

func (nonInteractive) Select(string, []string, string) (int, string, error) {
	return -1, "", ErrNonInteractive
}

func (nonInteractive) Prompt(string) (string, error) {
	return "", ErrNonInteractive
}

func (nonInteractive) Confirm(string, bool) (bool, error) {
	return false, ErrNonInteractive
}
