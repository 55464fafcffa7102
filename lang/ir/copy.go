package ir

// Copier implements iform-copy (spec §4.8): a structural clone of an IR
// subtree where LVars bound inside the subtree are rewritten to fresh ones
// (and recorded in the copier's map) while LVars bound outside are kept
// as-is, with their reference/assignment counts updated to reflect the new
// live LRef/LSet created by the clone. Label nodes are memoized by
// original-to-copy identity so that cycles formed through a shared Label
// (the only form of IR sharing, spec §3) become cycles through the clone
// rather than being duplicated.
type Copier struct {
	lvars  map[*LVar]*LVar
	labels map[*Label]*Label
}

// NewCopier returns a fresh Copier with empty memo tables. Reuse one
// Copier across several Copy calls only when those calls are meant to
// share the same LVar/Label renaming, e.g. unpacking a whole packed
// subtree at once.
func NewCopier() *Copier {
	return &Copier{lvars: make(map[*LVar]*LVar), labels: make(map[*Label]*Label)}
}

// Copy clones node using a fresh Copier.
func Copy(node Node) Node {
	return NewCopier().Copy(node)
}

func (c *Copier) lvar(v *LVar) *LVar {
	if nv, ok := c.lvars[v]; ok {
		return nv
	}
	return v // bound outside the copied subtree: the clone still names it
}

func (c *Copier) bind(v *LVar) *LVar {
	nv := &LVar{Name: v.Name}
	c.lvars[v] = nv
	return nv
}

// Copy clones node, see the Copier doc comment for the renaming rules.
func (c *Copier) Copy(node Node) Node {
	if node == nil {
		return nil
	}
	switch n := node.(type) {
	case *Define:
		return &Define{base: n.base, Flags: n.Flags, Ident: n.Ident, Expr: c.Copy(n.Expr)}

	case *LRef:
		nv := c.lvar(n.LVar)
		nv.Ref()
		return &LRef{base: n.base, LVar: nv}

	case *LSet:
		nv := c.lvar(n.LVar)
		nv.Set()
		return &LSet{base: n.base, LVar: nv, Expr: c.Copy(n.Expr)}

	case *GRef:
		return &GRef{base: n.base, Ident: n.Ident}

	case *GSet:
		return &GSet{base: n.base, Ident: n.Ident, Expr: c.Copy(n.Expr)}

	case *Const:
		return n // immutable, safe to share (spec §4.1)

	case *If:
		return &If{base: n.base, Test: c.Copy(n.Test), Then: c.Copy(n.Then), Else: c.Copy(n.Else)}

	case *Let:
		lvars := make([]*LVar, len(n.LVars))
		for i, v := range n.LVars {
			lvars[i] = c.bind(v)
		}
		inits := make([]Node, len(n.Inits))
		for i, e := range n.Inits {
			inits[i] = c.Copy(e)
		}
		for i, v := range lvars {
			v.Init = inits[i]
		}
		return &Let{base: n.base, Kind: n.Kind, LVars: lvars, Inits: inits, Body: c.Copy(n.Body)}

	case *Receive:
		lvars := make([]*LVar, len(n.LVars))
		for i, v := range n.LVars {
			lvars[i] = c.bind(v)
		}
		producer := c.Copy(n.Producer)
		body := c.Copy(n.Body)
		return &Receive{base: n.base, ReqArgs: n.ReqArgs, OptArg: n.OptArg, LVars: lvars, Producer: producer, Body: body}

	case *Lambda:
		lvars := make([]*LVar, len(n.LVars))
		for i, v := range n.LVars {
			lvars[i] = c.bind(v)
		}
		body := c.Copy(n.Body)
		return &Lambda{base: n.base, Name: n.Name, HasName: n.HasName, ReqArgs: n.ReqArgs, OptArg: n.OptArg, LVars: lvars, Body: body, Flag: LambdaPlain}

	case *Label:
		if nl, ok := c.labels[n]; ok {
			return nl
		}
		nl := &Label{base: n.base, LabelID: -1}
		c.labels[n] = nl
		nl.Body = c.Copy(n.Body)
		return nl

	case *Seq:
		body := make([]Node, len(n.Body))
		for i, e := range n.Body {
			body[i] = c.Copy(e)
		}
		return &Seq{base: n.base, Body: body}

	case *Call:
		args := make([]Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = c.Copy(a)
		}
		nc := &Call{base: n.base, Proc: c.Copy(n.Proc), Args: args, Flag: n.Flag}
		if n.Label != nil {
			nc.Label = c.Copy(n.Label).(*Label)
		}
		return nc

	case *Asm:
		args := make([]Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = c.Copy(a)
		}
		return &Asm{base: n.base, Insn: n.Insn, Args: args}

	case *Promise:
		return &Promise{base: n.base, Expr: c.Copy(n.Expr)}

	case *Cons:
		return &Cons{base: n.base, X: c.Copy(n.X), Y: c.Copy(n.Y)}
	case *Append:
		return &Append{base: n.base, X: c.Copy(n.X), Y: c.Copy(n.Y)}
	case *Memv:
		return &Memv{base: n.base, X: c.Copy(n.X), Y: c.Copy(n.Y)}
	case *Eq:
		return &Eq{base: n.base, X: c.Copy(n.X), Y: c.Copy(n.Y)}
	case *Eqv:
		return &Eqv{base: n.base, X: c.Copy(n.X), Y: c.Copy(n.Y)}

	case *List:
		args := make([]Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = c.Copy(a)
		}
		return &List{base: n.base, Args: args}

	case *ListStar:
		args := make([]Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = c.Copy(a)
		}
		return &ListStar{base: n.base, Args: args}

	case *Vector:
		args := make([]Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = c.Copy(a)
		}
		return &Vector{base: n.base, Args: args}

	case *List2Vector:
		return &List2Vector{base: n.base, Arg: c.Copy(n.Arg)}

	case *It:
		return ItNode

	default:
		panic("ir: Copy: unknown node type")
	}
}
