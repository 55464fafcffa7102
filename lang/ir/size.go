package ir

// CountSizeUpTo implements iform-count-size-upto (spec §8 invariant 3): it
// counts nodes reachable from node, stopping as soon as the running count
// reaches limit. The result never exceeds limit, and calling it with a
// larger limit never yields a smaller count for the same node, so callers
// that only need to know "is this body small enough to inline" can pass the
// threshold itself and avoid walking arbitrarily large bodies.
func CountSizeUpTo(node Node, limit int) int {
	n := 0
	var walk func(Node) bool
	walk = func(nd Node) bool {
		if nd == nil {
			return true
		}
		n++
		if n >= limit {
			return false
		}
		switch v := nd.(type) {
		case *Define:
			return walk(v.Expr)
		case *LSet:
			return walk(v.Expr)
		case *GSet:
			return walk(v.Expr)
		case *If:
			return walk(v.Test) && walk(v.Then) && walk(v.Else)
		case *Let:
			for _, e := range v.Inits {
				if !walk(e) {
					return false
				}
			}
			return walk(v.Body)
		case *Receive:
			return walk(v.Producer) && walk(v.Body)
		case *Lambda:
			return walk(v.Body)
		case *Label:
			return walk(v.Body)
		case *Seq:
			for _, e := range v.Body {
				if !walk(e) {
					return false
				}
			}
			return true
		case *Call:
			if !walk(v.Proc) {
				return false
			}
			for _, a := range v.Args {
				if !walk(a) {
					return false
				}
			}
			return true
		case *Asm:
			for _, a := range v.Args {
				if !walk(a) {
					return false
				}
			}
			return true
		case *Promise:
			return walk(v.Expr)
		case *Cons:
			return walk(v.X) && walk(v.Y)
		case *Append:
			return walk(v.X) && walk(v.Y)
		case *Memv:
			return walk(v.X) && walk(v.Y)
		case *Eq:
			return walk(v.X) && walk(v.Y)
		case *Eqv:
			return walk(v.X) && walk(v.Y)
		case *List:
			for _, a := range v.Args {
				if !walk(a) {
					return false
				}
			}
			return true
		case *ListStar:
			for _, a := range v.Args {
				if !walk(a) {
					return false
				}
			}
			return true
		case *Vector:
			for _, a := range v.Args {
				if !walk(a) {
					return false
				}
			}
			return true
		case *List2Vector:
			return walk(v.Arg)
		default:
			// LRef, GRef, Const, It: leaves, already counted above.
			return true
		}
	}
	walk(node)
	if n > limit {
		n = limit
	}
	return n
}
