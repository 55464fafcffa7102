// Package pass3 implements the compiler's final pass (spec §4.10): turning
// optimized IR into a flat list of bytecode instructions, resolving LABEL
// nodes to concrete jump addresses and lexical references to depth/index
// pairs into the runtime environment chain.
package pass3

import "github.com/embers-lang/embers/lang/token"

// Opcode is the VM instruction set pass 3 emits into. Indexed the same way
// the teacher indexes its own Opcode (lang/compiler/opcode.go): a plain
// iota block with a stack-picture comment per entry, and a name table for
// disassembly.
type Opcode uint8

const ( //nolint:revive
	NOP Opcode = iota // - NOP -

	// stack shuffling
	PUSH //        x PUSH  x x   (push the accumulator onto the stack)
	POP  //      x y POP   x     (pop into the accumulator)
	DUP  //        x DUP   x x

	// constants
	CONST  //  - CONST<k>  v   (v = constant table entry k)
	CONSTN //  -   CONSTN  '()
	CONSTF //  -   CONSTF  #f
	CONSTT //  -   CONSTT  #t
	CONSTU //  -   CONSTU  #<undef>

	// variable access; LREF/LSET operands encode (depth<<16 | index) into
	// the runtime environment chain, GREF/GSET/GDEF index the module's
	// binding table directly.
	LREF //   -    LREF<d,i>   v
	LSET //   v    LSET<d,i>   -
	GREF //   -    GREF<k>     v
	GSET //   v    GSET<k>     -
	GDEF //   v    GDEF<k>     -

	// control flow
	JUMP //      - JUMP<addr>   -           (unconditional)
	BF   //      v BF<addr>     -           (branch if v is #f)

	// calls; LOCAL-ENV starts a new Let frame and a CallJump lowers to
	// LOCAL-ENV-JUMP. LOCAL-ENV-CALL names the CallEmbed form but is never
	// emitted: pass 2 rewrites an embedded call into a Let.
	CALL          // fn a1..an          CALL<n>          result
	TAILCALL      // fn a1..an          TAILCALL<n>      result  (replaces frame)
	LOCALENV      // v1..vn             LOCALENV<n>      -       (bind into a new frame)
	LOCALENVCALL  // v1..vn             LOCALENVCALL<n>  result  (CallEmbed: call a dissolved closure)
	LOCALENVJUMP  // v1..vn             LOCALENVJUMP<n>  -       (CallJump: tail-recurse to a LABEL)
	POPENV        //  -                 POPENV           -       (leave the innermost frame)
	RET           //  v                 RET              -       (return v to the caller)
	CLOSURE       //  -                 CLOSURE<k>       fn      (k indexes the function template table)

	// pairs/lists/vectors
	CONS
	CAR
	CDR
	APPEND
	MEMV
	EQP
	EQVP
	LISTN       // x1..xn  LISTN<n>        list
	LISTSTARN   // x1..xn  LISTSTARN<n>    improper-list
	VECTORN     // x1..xn  VECTORN<n>      vector
	LIST2VECTOR // lst     LIST2VECTOR     vector

	// numeric/comparison, shared with Asm nodes pass 1 compiles core
	// procedures down to (spec §4.5/§4.11)
	NUMADD2
	NUMSUB2
	NUMMUL2
	NUMDIV2
	NUMLT
	NUMLE
	NUMGT
	NUMGE
	NUMEQ
	NOT
	NULLP

	// misc
	MAKEPROMISE // thunk MAKEPROMISE promise

	OpcodeMax
)

var opcodeNames = [OpcodeMax]string{
	NOP:    "NOP",
	PUSH:   "PUSH",
	POP:    "POP",
	DUP:    "DUP",
	CONST:  "CONST",
	CONSTN: "CONSTN",
	CONSTF: "CONSTF",
	CONSTT: "CONSTT",
	CONSTU: "CONSTU",
	LREF:   "LREF",
	LSET:   "LSET",
	GREF:   "GREF",
	GSET:   "GSET",
	GDEF:   "GDEF",
	JUMP:   "JUMP",
	BF:     "BF",

	CALL:         "CALL",
	TAILCALL:     "TAIL-CALL",
	LOCALENV:     "LOCAL-ENV",
	LOCALENVCALL: "LOCAL-ENV-CALL",
	LOCALENVJUMP: "LOCAL-ENV-JUMP",
	POPENV:       "POP-ENV",
	RET:          "RET",
	CLOSURE:      "CLOSURE",

	CONS:        "CONS",
	CAR:         "CAR",
	CDR:         "CDR",
	APPEND:      "APPEND",
	MEMV:        "MEMV",
	EQP:         "EQ?",
	EQVP:        "EQV?",
	LISTN:       "LIST",
	LISTSTARN:   "LIST*",
	VECTORN:     "VECTOR",
	LIST2VECTOR: "LIST->VECTOR",

	NUMADD2: "NUMADD2",
	NUMSUB2: "NUMSUB2",
	NUMMUL2: "NUMMUL2",
	NUMDIV2: "NUMDIV2",
	NUMLT:   "NUMLT",
	NUMLE:   "NUMLE",
	NUMGT:   "NUMGT",
	NUMGE:   "NUMGE",
	NUMEQ:   "NUMEQ",
	NOT:     "NOT",
	NULLP:   "NULLP",

	MAKEPROMISE: "MAKE-PROMISE",
}

func (op Opcode) String() string {
	if op < OpcodeMax && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "<invalid opcode>"
}

// OpcodeByName maps an opcode's disassembled name back to its Opcode, the
// reverse of opcodeNames. Built once at init time for lang/asm's assembler.
var OpcodeByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		if name != "" {
			m[name] = Opcode(op)
		}
	}
	return m
}()

// fromToken maps the token.Op an inlinable operator compiled to in pass 1
// (an ir.Asm's Insn.Opcode) to the concrete VM opcode pass 3 emits for it.
var fromToken = map[token.Op]Opcode{
	token.LT:    NUMLT,
	token.LE:    NUMLE,
	token.GT:    NUMGT,
	token.GE:    NUMGE,
	token.NUMEQ: NUMEQ,
	token.ADD:   NUMADD2,
	token.SUB:   NUMSUB2,
	token.MUL:   NUMMUL2,
	token.DIV:   NUMDIV2,
	token.NOT:   NOT,
	token.NULLP: NULLP,
}
