package engine

// Op identifies the rule that produced a node. The set is closed: Backward
// switches over it exhaustively.
type Op uint8

const (
	OpLeaf Op = iota
	OpAdd
	OpMul
	OpPow
	OpExp
	OpReLU
	OpTanh
)

func (o Op) String() string {
	switch o {
	case OpLeaf:
		return ""
	case OpAdd:
		return "+"
	case OpMul:
		return "*"
	case OpPow:
		return "**"
	case OpExp:
		return "exp"
	case OpReLU:
		return "ReLU"
	case OpTanh:
		return "tanh"
	}
	return "op?"
}
