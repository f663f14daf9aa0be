package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
	MessageRoleSystem    = "system"
)

const (
	PointTxTypePurchase    = "purchase"
	PointTxTypeConsumption = "consumption"
	PointTxTypeBonus       = "bonus"
	PointTxTypeAdjustment  = "adjustment"
)

const (
	ReferenceTypeResult   = "generated_result"
	ReferenceTypePayment  = "payment"
	ReferenceTypeSignup   = "signup"
	ReferenceTypeOperator = "operator"
)

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusExpired   = "EXPIRED"
)

// Ledger error codes reported by ConsumePoints.
const (
	ConsumeErrInsufficientPoints = "insufficient_points"
	ConsumeErrInvalidAmount      = "invalid_amount"
)

// DateLayout is the day-granularity key used by the message limiter.
const DateLayout = "2006-01-02"
