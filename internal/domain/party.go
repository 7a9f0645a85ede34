package domain

// PartyStatus статус пати на стороне backend
type PartyStatus string

const (
	PartyStatusRecruiting     PartyStatus = "RECRUITING"
	PartyStatusOngoing        PartyStatus = "ONGOING"
	PartyStatusDepositPending PartyStatus = "DEPOSIT_PENDING"
	PartyStatusFinished       PartyStatus = "FINISHED"
)

// Party представляет собой пати, возвращаемую MoA backend
type Party struct {
	ID            int64       `json:"partyId"`
	ProductID     int64       `json:"productId"`
	ProductName   string      `json:"productName"`
	MonthlyFee    int64       `json:"monthlyFee"`
	MaxMembers    int         `json:"maxMembers"`
	StartDate     string      `json:"startDate"`
	EndDate       string      `json:"endDate"`
	OttID         string      `json:"ottId"`
	OttPassword   string      `json:"ottPassword"`
	Status        PartyStatus `json:"partyStatus"`
	PartyLeaderID int64       `json:"partyLeaderId"`
}

// PartyMember участник пати
type PartyMember struct {
	UserID        int64  `json:"userId"`
	Nickname      string `json:"nickname"`
	Role          string `json:"role"`
	PartyMemberID int64  `json:"partyMemberId"`
}

// CreatePartyRequest запрос на создание пати в MoA backend.
// OTT учетные данные передаются пустыми и заполняются на шаге
// передачи учетных данных.
type CreatePartyRequest struct {
	ProductID   int64  `json:"productId"`
	MaxMembers  int    `json:"maxMembers"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	OttID       string `json:"ottId"`
	OttPassword string `json:"ottPassword"`
}

// PartyDraft черновик пати, заполняемый по мере прохождения шагов чекаута
type PartyDraft struct {
	ProductID   int64  `json:"product_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	Price       int64  `json:"price,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Months      int    `json:"months,omitempty"`
	MaxMembers  int    `json:"max_members,omitempty"`
}

// IsEmpty проверяет, что черновик не содержит данных
func (d PartyDraft) IsEmpty() bool {
	return d == PartyDraft{}
}
