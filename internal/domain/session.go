package domain

// Ключи записей восстанавливаемой сессии. Записи переживают
// полный уход браузера на страницу платежного провайдера и возврат.
const (
	SessionKeyPendingPayment   = "pending_payment"
	SessionKeyAfterBilling     = "after_billing_redirect"
	SessionKeyBillingReason    = "billing_registration_reason"
	SessionKeyPendingPartyJoin = "pending_party_join"
)

// PendingPayment запись о незавершенном платеже, записывается
// строго до выдачи URL редиректа и является единственным источником
// состояния при возврате. Уничтожается при любом терминальном исходе.
type PendingPayment struct {
	Flow       FlowKind   `json:"type"`
	CheckoutID string     `json:"checkout_id,omitempty"`
	PartyID    int64      `json:"party_id"`
	OrderID    string     `json:"order_id"`
	Amount     int64      `json:"amount"`
	Draft      PartyDraft `json:"party_data,omitempty"`
}

// PendingPartyJoin запись о незавершенном вступлении в пати
type PendingPartyJoin struct {
	PartyID int64 `json:"party_id"`
	Amount  int64 `json:"amount"`
}

// AfterBillingRedirect путь, на который нужно вернуть пользователя
// после регистрации платежного ключа
type AfterBillingRedirect struct {
	Path string `json:"path"`
}

// BillingRegistration причина детура на регистрацию карты
type BillingRegistration struct {
	Reason BillingReason `json:"reason"`
}
