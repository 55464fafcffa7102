package ir

import "github.com/embers-lang/embers/lang/sexpr"

// Packed is the flat-vector serialization of an IR subtree (spec §4.7),
// used to save a define-inline body for reuse across compilation units
// without keeping the original Go pointers alive. Nodes and LVars refer to
// each other by 1-based index into the two slices below; index 0 means
// "nil".
type Packed struct {
	Nodes []PackedNode
	LVars []PackedLVar
	Root  int
}

// PackedNode is one flattened IR node. Only the fields relevant to Tag are
// populated; the rest are left zero.
type PackedNode struct {
	Tag      Tag
	Kids     []int // child node indices
	LVarRefs []int // LVar indices this node names (LRef/LSet) or binds (Let/Receive/Lambda)
	Ints     []int // small integer payloads: ReqArgs/OptArg/Kind/Flag/LabelID, positionally per Tag
	Sym      sexpr.Symbol
	Value    sexpr.Value // Const's literal
}

// PackedLVar is one flattened binding site.
type PackedLVar struct {
	Name sexpr.Symbol
	Init int // node index, 0 if none
}

// Pack implements pack-iform: it flattens node into a Packed value. LABEL
// nodes are visited once (memoized by pointer identity) so a jump target
// shared by several CALL nodes is stored once and referenced by index from
// every occurrence, matching the sharing invariant of the live IR (spec §3).
func Pack(node Node) *Packed {
	p := &packer{
		nodeIdx: make(map[Node]int),
		lvarIdx: make(map[*LVar]int),
	}
	p.out.Root = p.pack(node)
	return &p.out
}

type packer struct {
	out     Packed
	nodeIdx map[Node]int // memoizes Label nodes only
	lvarIdx map[*LVar]int
}

func (p *packer) packLVar(v *LVar) int {
	if idx, ok := p.lvarIdx[v]; ok {
		return idx
	}
	p.out.LVars = append(p.out.LVars, PackedLVar{Name: v.Name})
	idx := len(p.out.LVars)
	p.lvarIdx[v] = idx
	p.out.LVars[idx-1].Init = p.pack(v.Init)
	return idx
}

func (p *packer) emit(pn PackedNode) int {
	p.out.Nodes = append(p.out.Nodes, pn)
	return len(p.out.Nodes)
}

func (p *packer) pack(node Node) int {
	if node == nil {
		return 0
	}
	switch n := node.(type) {
	case *Define:
		flag := 0
		if n.Flags&DefineConst != 0 {
			flag = 1
		}
		return p.emit(PackedNode{Tag: TagDefine, Sym: n.Ident.Name, Ints: []int{flag}, Kids: []int{p.pack(n.Expr)}})

	case *LRef:
		return p.emit(PackedNode{Tag: TagLRef, LVarRefs: []int{p.packLVar(n.LVar)}})

	case *LSet:
		return p.emit(PackedNode{Tag: TagLSet, LVarRefs: []int{p.packLVar(n.LVar)}, Kids: []int{p.pack(n.Expr)}})

	case *GRef:
		return p.emit(PackedNode{Tag: TagGRef, Sym: n.Ident.Name})

	case *GSet:
		return p.emit(PackedNode{Tag: TagGSet, Sym: n.Ident.Name, Kids: []int{p.pack(n.Expr)}})

	case *Const:
		return p.emit(PackedNode{Tag: TagConst, Value: n.Value})

	case *If:
		return p.emit(PackedNode{Tag: TagIf, Kids: []int{p.pack(n.Test), p.pack(n.Then), p.pack(n.Else)}})

	case *Let:
		lvars := make([]int, len(n.LVars))
		for i, v := range n.LVars {
			p.out.LVars = append(p.out.LVars, PackedLVar{Name: v.Name})
			idx := len(p.out.LVars)
			p.lvarIdx[v] = idx
			lvars[i] = idx
		}
		kids := make([]int, len(n.Inits))
		for i, e := range n.Inits {
			kids[i] = p.pack(e)
		}
		for i, idx := range lvars {
			p.out.LVars[idx-1].Init = kids[i]
		}
		body := p.pack(n.Body)
		return p.emit(PackedNode{Tag: TagLet, Ints: []int{int(n.Kind)}, LVarRefs: lvars, Kids: append(kids, body)})

	case *Receive:
		lvars := make([]int, len(n.LVars))
		for i, v := range n.LVars {
			p.out.LVars = append(p.out.LVars, PackedLVar{Name: v.Name})
			lvars[i] = len(p.out.LVars)
			p.lvarIdx[v] = lvars[i]
		}
		producer := p.pack(n.Producer)
		body := p.pack(n.Body)
		return p.emit(PackedNode{Tag: TagReceive, Ints: []int{n.ReqArgs, n.OptArg}, LVarRefs: lvars, Kids: []int{producer, body}})

	case *Lambda:
		lvars := make([]int, len(n.LVars))
		for i, v := range n.LVars {
			p.out.LVars = append(p.out.LVars, PackedLVar{Name: v.Name})
			lvars[i] = len(p.out.LVars)
			p.lvarIdx[v] = lvars[i]
		}
		body := p.pack(n.Body)
		nameFlag := 0
		if n.HasName {
			nameFlag = 1
		}
		return p.emit(PackedNode{Tag: TagLambda, Sym: n.Name, Ints: []int{n.ReqArgs, n.OptArg, nameFlag}, LVarRefs: lvars, Kids: []int{body}})

	case *Label:
		if idx, ok := p.nodeIdx[n]; ok {
			return idx
		}
		// Reserve the slot before recursing so a cycle through this same
		// Label packs as a self-reference rather than looping forever.
		idx := p.emit(PackedNode{Tag: TagLabel})
		p.nodeIdx[n] = idx
		p.out.Nodes[idx-1].Kids = []int{p.pack(n.Body)}
		return idx

	case *Seq:
		kids := make([]int, len(n.Body))
		for i, e := range n.Body {
			kids[i] = p.pack(e)
		}
		return p.emit(PackedNode{Tag: TagSeq, Kids: kids})

	case *Call:
		kids := make([]int, len(n.Args)+1)
		kids[0] = p.pack(n.Proc)
		for i, a := range n.Args {
			kids[i+1] = p.pack(a)
		}
		label := 0
		if n.Label != nil {
			label = p.pack(n.Label)
		}
		return p.emit(PackedNode{Tag: TagCall, Ints: []int{int(n.Flag), label}, Kids: kids})

	case *Asm:
		kids := make([]int, len(n.Args))
		for i, a := range n.Args {
			kids[i] = p.pack(a)
		}
		opHasOperand := 0
		if n.Insn.HasOperand {
			opHasOperand = 1
		}
		return p.emit(PackedNode{Tag: TagAsm, Ints: []int{n.Insn.Opcode, n.Insn.Operand, opHasOperand}, Kids: kids})

	case *Promise:
		return p.emit(PackedNode{Tag: TagPromise, Kids: []int{p.pack(n.Expr)}})

	case *Cons:
		return p.emit(PackedNode{Tag: TagCons, Kids: []int{p.pack(n.X), p.pack(n.Y)}})
	case *Append:
		return p.emit(PackedNode{Tag: TagAppend, Kids: []int{p.pack(n.X), p.pack(n.Y)}})
	case *Memv:
		return p.emit(PackedNode{Tag: TagMemv, Kids: []int{p.pack(n.X), p.pack(n.Y)}})
	case *Eq:
		return p.emit(PackedNode{Tag: TagEq, Kids: []int{p.pack(n.X), p.pack(n.Y)}})
	case *Eqv:
		return p.emit(PackedNode{Tag: TagEqv, Kids: []int{p.pack(n.X), p.pack(n.Y)}})

	case *List:
		kids := make([]int, len(n.Args))
		for i, a := range n.Args {
			kids[i] = p.pack(a)
		}
		return p.emit(PackedNode{Tag: TagList, Kids: kids})

	case *ListStar:
		kids := make([]int, len(n.Args))
		for i, a := range n.Args {
			kids[i] = p.pack(a)
		}
		return p.emit(PackedNode{Tag: TagListStar, Kids: kids})

	case *Vector:
		kids := make([]int, len(n.Args))
		for i, a := range n.Args {
			kids[i] = p.pack(a)
		}
		return p.emit(PackedNode{Tag: TagVector, Kids: kids})

	case *List2Vector:
		return p.emit(PackedNode{Tag: TagList2Vector, Kids: []int{p.pack(n.Arg)}})

	case *It:
		return p.emit(PackedNode{Tag: TagIt})

	default:
		panic("ir: Pack: unknown node type")
	}
}

// Unpack implements unpack-iform, the inverse of Pack: it rebuilds a live IR
// tree with fresh LVar and Label identities (the result is equivalent to
// Copy-ing the original tree, not identical to it — pointer identity is
// never preserved across a pack/unpack round trip).
func Unpack(packed *Packed) Node {
	if packed == nil || packed.Root == 0 {
		return nil
	}
	u := &unpacker{packed: packed, nodes: make(map[int]Node), lvars: make(map[int]*LVar)}
	return u.unpack(packed.Root)
}

type unpacker struct {
	packed *Packed
	nodes  map[int]Node // memoizes Label slots only
	lvars  map[int]*LVar
}

func (u *unpacker) lvar(idx int) *LVar {
	if v, ok := u.lvars[idx]; ok {
		return v
	}
	pv := u.packed.LVars[idx-1]
	v := &LVar{Name: pv.Name}
	u.lvars[idx] = v
	return v
}

func (u *unpacker) unpack(idx int) Node {
	if idx == 0 {
		return nil
	}
	pn := u.packed.Nodes[idx-1]
	switch pn.Tag {
	case TagDefine:
		var flags DefineFlag
		if len(pn.Ints) > 0 && pn.Ints[0] == 1 {
			flags = DefineConst
		}
		return &Define{Flags: flags, Ident: Identifier{Name: pn.Sym}, Expr: u.unpack(pn.Kids[0])}

	case TagLRef:
		v := u.lvar(pn.LVarRefs[0])
		v.Ref()
		return &LRef{LVar: v}

	case TagLSet:
		v := u.lvar(pn.LVarRefs[0])
		v.Set()
		return &LSet{LVar: v, Expr: u.unpack(pn.Kids[0])}

	case TagGRef:
		return &GRef{Ident: Identifier{Name: pn.Sym}}

	case TagGSet:
		return &GSet{Ident: Identifier{Name: pn.Sym}, Expr: u.unpack(pn.Kids[0])}

	case TagConst:
		return &Const{Value: pn.Value}

	case TagIf:
		return &If{Test: u.unpack(pn.Kids[0]), Then: u.unpack(pn.Kids[1]), Else: u.unpack(pn.Kids[2])}

	case TagLet:
		lvars := make([]*LVar, len(pn.LVarRefs))
		for i, ref := range pn.LVarRefs {
			lvars[i] = u.lvar(ref)
		}
		inits := make([]Node, len(pn.Kids)-1)
		for i := range inits {
			inits[i] = u.unpack(pn.Kids[i])
		}
		for i, v := range lvars {
			v.Init = inits[i]
		}
		body := u.unpack(pn.Kids[len(pn.Kids)-1])
		return &Let{Kind: LetKind(pn.Ints[0]), LVars: lvars, Inits: inits, Body: body}

	case TagReceive:
		lvars := make([]*LVar, len(pn.LVarRefs))
		for i, ref := range pn.LVarRefs {
			lvars[i] = u.lvar(ref)
		}
		return &Receive{ReqArgs: pn.Ints[0], OptArg: pn.Ints[1], LVars: lvars, Producer: u.unpack(pn.Kids[0]), Body: u.unpack(pn.Kids[1])}

	case TagLambda:
		lvars := make([]*LVar, len(pn.LVarRefs))
		for i, ref := range pn.LVarRefs {
			lvars[i] = u.lvar(ref)
		}
		return &Lambda{
			Name:    pn.Sym,
			HasName: pn.Ints[2] == 1,
			ReqArgs: pn.Ints[0],
			OptArg:  pn.Ints[1],
			LVars:   lvars,
			Body:    u.unpack(pn.Kids[0]),
			Flag:    LambdaPlain,
		}

	case TagLabel:
		if n, ok := u.nodes[idx]; ok {
			return n
		}
		nl := &Label{LabelID: -1}
		u.nodes[idx] = nl
		nl.Body = u.unpack(pn.Kids[0])
		return nl

	case TagSeq:
		body := make([]Node, len(pn.Kids))
		for i, k := range pn.Kids {
			body[i] = u.unpack(k)
		}
		return &Seq{Body: body}

	case TagCall:
		call := &Call{Proc: u.unpack(pn.Kids[0]), Args: u.unpackAll(pn.Kids[1:]), Flag: CallKind(pn.Ints[0])}
		if len(pn.Ints) > 1 && pn.Ints[1] != 0 {
			call.Label = u.unpack(pn.Ints[1]).(*Label)
		}
		return call

	case TagAsm:
		return &Asm{
			Insn: Insn{Opcode: pn.Ints[0], Operand: pn.Ints[1], HasOperand: pn.Ints[2] == 1},
			Args: u.unpackAll(pn.Kids),
		}

	case TagPromise:
		return &Promise{Expr: u.unpack(pn.Kids[0])}

	case TagCons:
		return &Cons{X: u.unpack(pn.Kids[0]), Y: u.unpack(pn.Kids[1])}
	case TagAppend:
		return &Append{X: u.unpack(pn.Kids[0]), Y: u.unpack(pn.Kids[1])}
	case TagMemv:
		return &Memv{X: u.unpack(pn.Kids[0]), Y: u.unpack(pn.Kids[1])}
	case TagEq:
		return &Eq{X: u.unpack(pn.Kids[0]), Y: u.unpack(pn.Kids[1])}
	case TagEqv:
		return &Eqv{X: u.unpack(pn.Kids[0]), Y: u.unpack(pn.Kids[1])}

	case TagList:
		return &List{Args: u.unpackAll(pn.Kids)}
	case TagListStar:
		return &ListStar{Args: u.unpackAll(pn.Kids)}
	case TagVector:
		return &Vector{Args: u.unpackAll(pn.Kids)}
	case TagList2Vector:
		return &List2Vector{Arg: u.unpack(pn.Kids[0])}

	case TagIt:
		return ItNode

	default:
		panic("ir: Unpack: unknown tag")
	}
}

func (u *unpacker) unpackAll(idxs []int) []Node {
	out := make([]Node, len(idxs))
	for i, idx := range idxs {
		out[i] = u.unpack(idx)
	}
	return out
}
