package codegen

// Order is an operator precedence. Lower binds tighter
type Order int

const (
	OrderAtomic         Order = 0 // 0 "" ...
	OrderMember         Order = 1 // . []
	OrderNew            Order = 1 // new
	OrderFunctionCall   Order = 2 // ()
	OrderIncrement      Order = 3 // ++
	OrderDecrement      Order = 3 // --
	OrderLogicalNot     Order = 4 // !
	OrderBitwiseNot     Order = 4 // ~
	OrderUnaryPlus      Order = 4 // +
	OrderUnaryNegation  Order = 4 // -
	OrderMultiplication Order = 5 // *
	OrderDivision       Order = 5 // /
	OrderModulus        Order = 5 // %
	OrderAddition       Order = 6 // +
	OrderSubtraction    Order = 6 // -
	OrderBitwiseShift   Order = 7 // << >>
	OrderRelational     Order = 8 // < <= > >=
	OrderEquality       Order = 9 // == !=
	OrderBitwiseAnd     Order = 10
	OrderBitwiseXor     Order = 11
	OrderBitwiseOr      Order = 12
	OrderLogicalAnd     Order = 13 // &&
	OrderLogicalOr      Order = 14 // ||
	OrderConditional    Order = 15 // ?:
	OrderAssignment     Order = 16 // = += -= ...
	OrderComma          Order = 17 // ,
	OrderNone           Order = 99 // (...)
)

// Wrap parenthesizes code when its own precedence is looser than the context allows
func Wrap(code string, own, outer Order) string {
	if code == "" || own <= outer {
		return code
	}
	return "(" + code + ")"
}
