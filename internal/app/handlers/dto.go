package handlers

import (
	"time"

	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

// DTO marshaling is written directly against easyjson's jwriter/jlexer so the
// handlers keep the MarshalJSON/UnmarshalJSON call sites without carrying
// generator output in the tree.

type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (v ErrorResponse) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	w.RawString(`{"message":`)
	w.String(v.Message)
	w.RawString(`,"code":`)
	w.Int(v.Code)
	w.RawByte('}')
	return w.Buffer.BuildBytes(), w.Error
}

type LoginRequestDTO struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (v *LoginRequestDTO) UnmarshalJSON(data []byte) error {
	in := jlexer.Lexer{Data: data}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		switch key {
		case "login":
			v.Login = in.String()
		case "password":
			v.Password = in.String()
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()
	return in.Error()
}

type LoginResponseDTO struct {
	Token string `json:"token"`
}

func (v LoginResponseDTO) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	w.RawString(`{"token":`)
	w.String(v.Token)
	w.RawByte('}')
	return w.Buffer.BuildBytes(), w.Error
}

type DecisionRequestDTO struct {
	Decision string `json:"decision"`
}

func (v *DecisionRequestDTO) UnmarshalJSON(data []byte) error {
	in := jlexer.Lexer{Data: data}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		switch key {
		case "decision":
			v.Decision = in.String()
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()
	return in.Error()
}

type WithdrawalDTO struct {
	ID          string    `json:"id"`
	TelegramID  int64     `json:"telegram_id"`
	Amount      int64     `json:"amount"`
	Destination string    `json:"destination"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func (v WithdrawalDTO) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	v.marshal(&w)
	return w.Buffer.BuildBytes(), w.Error
}

func (v WithdrawalDTO) marshal(w *jwriter.Writer) {
	w.RawString(`{"id":`)
	w.String(v.ID)
	w.RawString(`,"telegram_id":`)
	w.Int64(v.TelegramID)
	w.RawString(`,"amount":`)
	w.Int64(v.Amount)
	w.RawString(`,"destination":`)
	w.String(v.Destination)
	w.RawString(`,"status":`)
	w.String(v.Status)
	w.RawString(`,"created_at":`)
	w.Raw(v.CreatedAt.MarshalJSON())
	w.RawByte('}')
}

type WithdrawalDTOSlice []WithdrawalDTO

func (v WithdrawalDTOSlice) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	w.RawByte('[')
	for i, item := range v {
		if i > 0 {
			w.RawByte(',')
		}
		item.marshal(&w)
	}
	w.RawByte(']')
	return w.Buffer.BuildBytes(), w.Error
}

type CampaignDTO struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Payout   int64  `json:"payout"`
	Link     string `json:"link"`
	Status   string `json:"status"`
	DailyCap int64  `json:"daily_cap"`
	UserCap  int64  `json:"user_cap"`
}

func (v CampaignDTO) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	v.marshal(&w)
	return w.Buffer.BuildBytes(), w.Error
}

func (v CampaignDTO) marshal(w *jwriter.Writer) {
	w.RawString(`{"name":`)
	w.String(v.Name)
	w.RawString(`,"type":`)
	w.String(v.Type)
	w.RawString(`,"payout":`)
	w.Int64(v.Payout)
	w.RawString(`,"link":`)
	w.String(v.Link)
	w.RawString(`,"status":`)
	w.String(v.Status)
	w.RawString(`,"daily_cap":`)
	w.Int64(v.DailyCap)
	w.RawString(`,"user_cap":`)
	w.Int64(v.UserCap)
	w.RawByte('}')
}

type CampaignDTOSlice []CampaignDTO

func (v CampaignDTOSlice) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	w.RawByte('[')
	for i, item := range v {
		if i > 0 {
			w.RawByte(',')
		}
		item.marshal(&w)
	}
	w.RawByte(']')
	return w.Buffer.BuildBytes(), w.Error
}

type CreateCampaignRequestDTO struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Payout   int64  `json:"payout"`
	Link     string `json:"link"`
	DailyCap int64  `json:"daily_cap"`
	UserCap  int64  `json:"user_cap"`
}

func (v *CreateCampaignRequestDTO) UnmarshalJSON(data []byte) error {
	in := jlexer.Lexer{Data: data}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		switch key {
		case "name":
			v.Name = in.String()
		case "type":
			v.Type = in.String()
		case "payout":
			v.Payout = in.Int64()
		case "link":
			v.Link = in.String()
		case "daily_cap":
			v.DailyCap = in.Int64()
		case "user_cap":
			v.UserCap = in.Int64()
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()
	return in.Error()
}
