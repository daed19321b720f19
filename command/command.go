package command

// Command is a handler registered under an id.
type Command interface {
	ID() ID
	Kind() Kind
	Run(args Args) error
}

// typedCommand checks the args variant before handing off to run.
type typedCommand[A Args] struct {
	id   ID
	kind Kind
	run  func(A) error
}

func (c *typedCommand[A]) ID() ID     { return c.id }
func (c *typedCommand[A]) Kind() Kind { return c.kind }

func (c *typedCommand[A]) Run(args Args) error {
	typed, ok := args.(A)
	if !ok {
		return &ArgsTypeMismatchError{ID: c.id, Want: c.kind, Got: describeArgs(args)}
	}
	return c.run(typed)
}

// NewServerCommand returns a server command running fn.
func NewServerCommand(id ID, fn func(*ServerArgs) error) Command {
	return &typedCommand[*ServerArgs]{id: id, kind: KindServer, run: fn}
}

// NewClientCommand returns a client command running fn.
func NewClientCommand(id ID, fn func(*ClientArgs) error) Command {
	return &typedCommand[*ClientArgs]{id: id, kind: KindClient, run: fn}
}
