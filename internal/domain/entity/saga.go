package entity

import (
	"time"

	"github.com/google/uuid"
)

type SagaState string

const (
	SagaRunning     SagaState = "running"
	SagaCompleted   SagaState = "completed"
	SagaCompensated SagaState = "compensated"
)

type SagaStepName string

const (
	StepOrderCreated     SagaStepName = "order_created"
	StepRequestsEnsured  SagaStepName = "requests_ensured"
	StepListingsReserved SagaStepName = "listings_reserved"
	StepPaymentRequested SagaStepName = "payment_requested"
	StepCompleted        SagaStepName = "completed"
	StepCompensated      SagaStepName = "compensated"
)

type SagaStep struct {
	ID     string       `bson:"id" json:"id"`
	Name   SagaStepName `bson:"name" json:"name"`
	At     time.Time    `bson:"at" json:"at"`
	Detail string       `bson:"detail,omitempty" json:"detail,omitempty"`
}

func NewSagaStep(name SagaStepName, detail string) SagaStep {
	return SagaStep{ID: uuid.NewString(), Name: name, At: time.Now().UTC(), Detail: detail}
}

// CheckoutSaga is the persisted step log of one checkout, keyed by order id.
// It lets a stalled checkout be resumed or compensated after a crash.
type CheckoutSaga struct {
	OrderID         string     `bson:"_id" json:"orderId"`
	CustomerID      string     `bson:"customer_id" json:"customerId"`
	State           SagaState  `bson:"state" json:"state"`
	Steps           []SagaStep `bson:"steps" json:"steps"`
	PaymentIntentID string     `bson:"payment_intent_id,omitempty" json:"paymentIntentId,omitempty"`
	CreatedAt       time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `bson:"updated_at" json:"updatedAt"`
}

func (s *CheckoutSaga) LastStep() SagaStepName {
	if len(s.Steps) == 0 {
		return ""
	}
	return s.Steps[len(s.Steps)-1].Name
}
