package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rayyanhq/mutabaa/internal/domain/model"
	"github.com/rayyanhq/mutabaa/pkg/metrics"
)

const defaultTimeout = 10 * time.Second

// Client implements Roster over the external service's JSON HTTP API.
// It carries no retry logic; retry policy belongs to the transport or
// the surrounding layers.
type Client struct {
	baseURL string
	client  *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.client = c
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		if d > 0 {
			cl.client.Timeout = d
		}
	}
}

// NewClient creates a roster client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wire shapes mirror the service's JSON responses.

type memberDTO struct {
	ID        int    `json:"id"`
	FullName  string `json:"full_name"`
	Gender    string `json:"gender"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
	Role      string `json:"role"`
	GroupID   int    `json:"halqa_id"`
	GroupName string `json:"halqa_name"`
}

func (d memberDTO) toModel() model.Member {
	return model.Member{
		ID:        d.ID,
		Name:      d.FullName,
		Gender:    model.NormalizeGender(d.Gender),
		Email:     d.Email,
		Phone:     d.Phone,
		Status:    model.Status(d.Status),
		Role:      model.Role(d.Role),
		GroupID:   d.GroupID,
		GroupName: d.GroupName,
	}
}

type groupDTO struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	SupervisorID   int    `json:"supervisor_id"`
	SupervisorName string `json:"supervisor_name"`
	MemberCount    int    `json:"member_count"`
}

func (d groupDTO) toModel() model.Group {
	return model.Group{
		ID:             d.ID,
		Name:           d.Name,
		SupervisorID:   d.SupervisorID,
		SupervisorName: d.SupervisorName,
		MemberCount:    d.MemberCount,
	}
}

type cardDTO struct {
	ID               int     `json:"id"`
	MemberID         int     `json:"user_id"`
	Date             string  `json:"date"`
	Quran            float64 `json:"quran"`
	Duas             float64 `json:"duas"`
	Taraweeh         float64 `json:"taraweeh"`
	Tahajjud         float64 `json:"tahajjud"`
	Duha             float64 `json:"duha"`
	Rawatib          float64 `json:"rawatib"`
	MainLesson       float64 `json:"main_lesson"`
	RequiredLesson   float64 `json:"required_lesson"`
	EnrichmentLesson float64 `json:"enrichment_lesson"`
	CharityWorship   float64 `json:"charity_worship"`
	ExtraWork        float64 `json:"extra_work"`
	ExtraWorkNote    string  `json:"extra_work_description"`
	Total            float64 `json:"total_score"`
	Max              float64 `json:"max_score"`
	Percentage       float64 `json:"percentage"`
	UpdatedAt        string  `json:"updated_at"`
}

func (d cardDTO) toRecord() (model.CardRecord, error) {
	date, err := time.Parse(time.DateOnly, d.Date)
	if err != nil {
		return model.CardRecord{}, fmt.Errorf("parse card date %q: %w", d.Date, err)
	}
	rec := model.CardRecord{
		ID:       d.ID,
		MemberID: d.MemberID,
		Date:     date,
		Values: map[string]float64{
			"quran":             d.Quran,
			"duas":              d.Duas,
			"taraweeh":          d.Taraweeh,
			"tahajjud":          d.Tahajjud,
			"duha":              d.Duha,
			"rawatib":           d.Rawatib,
			"main_lesson":       d.MainLesson,
			"required_lesson":   d.RequiredLesson,
			"enrichment_lesson": d.EnrichmentLesson,
			"charity_worship":   d.CharityWorship,
			"extra_work":        d.ExtraWork,
		},
		Note:       d.ExtraWorkNote,
		Total:      d.Total,
		Max:        d.Max,
		Percentage: d.Percentage,
	}
	if d.UpdatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, d.UpdatedAt); err == nil {
			rec.UpdatedAt = ts
		}
	}
	return rec, nil
}

func fromRecord(rec model.CardRecord) cardDTO {
	v := rec.Values
	return cardDTO{
		MemberID:         rec.MemberID,
		Date:             rec.Date.Format(time.DateOnly),
		Quran:            v["quran"],
		Duas:             v["duas"],
		Taraweeh:         v["taraweeh"],
		Tahajjud:         v["tahajjud"],
		Duha:             v["duha"],
		Rawatib:          v["rawatib"],
		MainLesson:       v["main_lesson"],
		RequiredLesson:   v["required_lesson"],
		EnrichmentLesson: v["enrichment_lesson"],
		CharityWorship:   v["charity_worship"],
		ExtraWork:        v["extra_work"],
		ExtraWorkNote:    rec.Note,
	}
}

// observe records one collaborator call, and its failure, per operation.
func observe(op string, err error) {
	metrics.RecordRosterCall(op)
	if err != nil {
		metrics.RecordRosterCallError(op)
	}
}

// ListMembers fetches members, filtered server-side where the API
// supports it (status, group).
func (c *Client) ListMembers(ctx context.Context, f MemberFilter) ([]model.Member, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.GroupID != 0 {
		q.Set("halqa_id", strconv.Itoa(f.GroupID))
	}

	var resp struct {
		Users []memberDTO `json:"users"`
	}
	err := c.get(ctx, "/api/admin/users", q, &resp)
	observe("list_members", err)
	if err != nil {
		return nil, &CallError{Op: "list members", Err: err}
	}

	out := make([]model.Member, 0, len(resp.Users))
	for _, u := range resp.Users {
		m := u.toModel()
		if f.Role != "" && m.Role != f.Role {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// ListGroups fetches every group.
func (c *Client) ListGroups(ctx context.Context) ([]model.Group, error) {
	var resp struct {
		Halqas []groupDTO `json:"halqas"`
	}
	err := c.get(ctx, "/api/admin/halqas", nil, &resp)
	observe("list_groups", err)
	if err != nil {
		return nil, &CallError{Op: "list groups", Err: err}
	}
	out := make([]model.Group, 0, len(resp.Halqas))
	for _, h := range resp.Halqas {
		out = append(out, h.toModel())
	}
	return out, nil
}

// GetCard fetches the (member, date) card; the service answers with a
// null card when none exists.
func (c *Client) GetCard(ctx context.Context, memberID int, date time.Time) (model.CardRecord, bool, error) {
	path := fmt.Sprintf("/api/supervisor/member/%d/card/%s", memberID, model.Day(date).Format(time.DateOnly))
	var resp struct {
		Card *cardDTO `json:"card"`
	}
	err := c.get(ctx, path, nil, &resp)
	observe("get_card", err)
	if err != nil {
		return model.CardRecord{}, false, &CallError{Op: "get card", MemberID: memberID, Err: err}
	}
	if resp.Card == nil {
		return model.CardRecord{}, false, nil
	}
	rec, err := resp.Card.toRecord()
	if err != nil {
		return model.CardRecord{}, false, &CallError{Op: "get card", MemberID: memberID, Err: err}
	}
	return rec, true, nil
}

// SaveCard creates or replaces the (member, date) card.
func (c *Client) SaveCard(ctx context.Context, rec model.CardRecord) (model.CardRecord, error) {
	path := fmt.Sprintf("/api/supervisor/member/%d/card/%s", rec.MemberID, model.Day(rec.Date).Format(time.DateOnly))
	var resp struct {
		Card *cardDTO `json:"card"`
	}
	err := c.do(ctx, http.MethodPut, path, fromRecord(rec), &resp)
	observe("save_card", err)
	if err != nil {
		return model.CardRecord{}, &CallError{Op: "save card", MemberID: rec.MemberID, Err: err}
	}
	if resp.Card == nil {
		return model.CardRecord{}, &CallError{Op: "save card", MemberID: rec.MemberID,
			Err: fmt.Errorf("service returned no card")}
	}
	saved, err := resp.Card.toRecord()
	if err != nil {
		return model.CardRecord{}, &CallError{Op: "save card", MemberID: rec.MemberID, Err: err}
	}
	return saved, nil
}

// ListCards fetches a member's cards and filters the date range locally;
// the service's listing has no range parameters.
func (c *Client) ListCards(ctx context.Context, memberID int, from, to time.Time) ([]model.CardRecord, error) {
	path := fmt.Sprintf("/api/supervisor/member/%d/cards", memberID)
	var resp struct {
		Cards []cardDTO `json:"cards"`
	}
	err := c.get(ctx, path, nil, &resp)
	observe("list_cards", err)
	if err != nil {
		return nil, &CallError{Op: "list cards", MemberID: memberID, Err: err}
	}

	var out []model.CardRecord
	for _, d := range resp.Cards {
		rec, err := d.toRecord()
		if err != nil {
			return nil, &CallError{Op: "list cards", MemberID: memberID, Err: err}
		}
		day := model.Day(rec.Date)
		if !from.IsZero() && day.Before(model.Day(from)) {
			continue
		}
		if !to.IsZero() && day.After(model.Day(to)) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// SetMembers issues the full-replacement assign call.
func (c *Client) SetMembers(ctx context.Context, groupID int, memberIDs []int) error {
	path := fmt.Sprintf("/api/admin/halqa/%d/assign-members", groupID)
	body := map[string]any{"user_ids": memberIDs}
	err := c.do(ctx, http.MethodPost, path, body, nil)
	observe("set_members", err)
	if err != nil {
		return &CallError{Op: "set members", GroupID: groupID, Err: err}
	}
	return nil
}

// ClearGroup issues one per-member clear call.
func (c *Client) ClearGroup(ctx context.Context, memberID int) error {
	path := fmt.Sprintf("/api/admin/user/%d/assign-halqa", memberID)
	body := map[string]any{"halqa_id": nil}
	err := c.do(ctx, http.MethodPost, path, body, nil)
	observe("clear_group", err)
	if err != nil {
		return &CallError{Op: "clear group", MemberID: memberID, Err: err}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return c.roundTrip(ctx, http.MethodGet, u, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	return c.roundTrip(ctx, method, c.baseURL+path, payload, out)
}

func (c *Client) roundTrip(ctx context.Context, method, u string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		var svcErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &svcErr) == nil && svcErr.Error != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, svcErr.Error)
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
