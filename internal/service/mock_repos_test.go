package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"mentor-hub/server/internal/model"
	"mentor-hub/server/internal/repository"
	pkgerrors "mentor-hub/server/pkg/errors"
)

// newMockRepository 组装全部 mock，未绑定数据库时 Transaction 直接执行
func newMockRepository() *repository.Repository {
	users := newMockUserRepo()
	return &repository.Repository{
		User:               users,
		Booking:            newMockBookingRepo(),
		Post:               newMockPostRepo(),
		PostSubmission:     newMockSubmissionRepo(),
		Event:              newMockEventRepo(),
		EventRegistration:  newMockRegistrationRepo(users),
		CheckInCode:        newMockCheckInCodeRepo(),
		EventReview:        newMockReviewRepo(),
		MentorProfile:      newMockProfileRepo(),
		MentorRegistration: newMockMentorRegRepo(),
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) UpdateAvatar(_ context.Context, userID, avatarURL string) error {
	if u, ok := m.users[userID]; ok {
		u.AvatarURL = &avatarURL
	}
	return nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, userID, role, _ string) error {
	u, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Role = role
	return nil
}

// ── Mock BookingRepository ──

type mockBookingRepo struct {
	bookings map[string]*model.Booking
	order    []string
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[string]*model.Booking)}
}

func (m *mockBookingRepo) Create(_ context.Context, b *model.Booking) error {
	if b.BookingID == "" {
		b.BookingID = fmt.Sprintf("bk-%d", len(m.order)+1)
	}
	if b.Status == "" {
		b.Status = model.BookingPending
	}
	m.bookings[b.BookingID] = b
	m.order = append(m.order, b.BookingID)
	return nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id string) (*model.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ListByMentor 按创建顺序倒序
func (m *mockBookingRepo) ListByMentor(_ context.Context, mentorID string) ([]model.Booking, error) {
	var result []model.Booking
	for i := len(m.order) - 1; i >= 0; i-- {
		if b := m.bookings[m.order[i]]; b.MentorID == mentorID {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBookingRepo) Update(_ context.Context, b *model.Booking) error {
	if _, ok := m.bookings[b.BookingID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *b
	m.bookings[b.BookingID] = &cp
	return nil
}

// ── Mock PostRepository ──

type mockPostRepo struct {
	posts map[string]*model.Post
	order []string
}

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{posts: make(map[string]*model.Post)}
}

func (m *mockPostRepo) Create(_ context.Context, p *model.Post) error {
	if p.PostID == "" {
		p.PostID = fmt.Sprintf("post-%d", len(m.order)+1)
	}
	if p.Version == 0 {
		p.Version = 1
	}
	cp := *p
	m.posts[p.PostID] = &cp
	m.order = append(m.order, p.PostID)
	return nil
}

func (m *mockPostRepo) GetByID(_ context.Context, id string) (*model.Post, error) {
	if p, ok := m.posts[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPostRepo) ListByMentor(_ context.Context, mentorID string, filter repository.PostFilter) ([]model.Post, error) {
	var result []model.Post
	for i := len(m.order) - 1; i >= 0; i-- {
		p, ok := m.posts[m.order[i]]
		if !ok || p.MentorID != mentorID {
			continue
		}
		if filter.PostType != "" && p.PostType != filter.PostType {
			continue
		}
		if filter.Tag != "" && !hasTag(p.Tags, filter.Tag) {
			continue
		}
		if filter.Keyword != "" {
			summary := ""
			if p.Summary != nil {
				summary = *p.Summary
			}
			if !containsFold(p.Title, filter.Keyword) && !containsFold(summary, filter.Keyword) {
				continue
			}
		}
		result = append(result, *p)
	}
	return result, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (m *mockPostRepo) Update(_ context.Context, p *model.Post) error {
	stored, ok := m.posts[p.PostID]
	if !ok || stored.Version != p.Version {
		return pkgerrors.ErrOptimisticLock
	}
	p.Version++
	cp := *p
	m.posts[p.PostID] = &cp
	return nil
}

func (m *mockPostRepo) SetPublished(_ context.Context, postID string, published bool, _ string) error {
	p, ok := m.posts[postID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Published = published
	return nil
}

func (m *mockPostRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.posts, id)
	return nil
}

func (m *mockPostRepo) DistinctTags(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var tags []string
	for _, p := range m.posts {
		for _, t := range p.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// ── Mock PostSubmissionRepository ──

type mockSubmissionRepo struct {
	subs []*model.PostSubmission
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{}
}

func (m *mockSubmissionRepo) Create(_ context.Context, sub *model.PostSubmission) error {
	if sub.SubmissionID == "" {
		sub.SubmissionID = fmt.Sprintf("sub-%d", len(m.subs)+1)
	}
	if sub.Status == "" {
		sub.Status = model.SubmissionPending
	}
	cp := *sub
	m.subs = append(m.subs, &cp)
	return nil
}

func (m *mockSubmissionRepo) GetByID(_ context.Context, id string) (*model.PostSubmission, error) {
	for _, s := range m.subs {
		if s.SubmissionID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// Latest 最后插入的一条即最新
func (m *mockSubmissionRepo) Latest(_ context.Context, postID string) (*model.PostSubmission, error) {
	for i := len(m.subs) - 1; i >= 0; i-- {
		if m.subs[i].PostID == postID {
			cp := *m.subs[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubmissionRepo) LatestByPosts(ctx context.Context, postIDs []string) (map[string]*model.PostSubmission, error) {
	result := make(map[string]*model.PostSubmission)
	for _, id := range postIDs {
		if s, err := m.Latest(ctx, id); err == nil {
			result[id] = s
		}
	}
	return result, nil
}

func (m *mockSubmissionRepo) List(_ context.Context, status string, offset, limit int) ([]model.PostSubmission, int64, error) {
	var all []model.PostSubmission
	for i := len(m.subs) - 1; i >= 0; i-- {
		if status == "" || m.subs[i].Status == status {
			all = append(all, *m.subs[i])
		}
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockSubmissionRepo) Update(_ context.Context, sub *model.PostSubmission) error {
	for i, s := range m.subs {
		if s.SubmissionID == sub.SubmissionID {
			cp := *sub
			m.subs[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock EventRepository ──

type mockEventRepo struct {
	events map[string]*model.Event
	order  []string
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[string]*model.Event)}
}

func (m *mockEventRepo) Create(_ context.Context, e *model.Event) error {
	if e.EventID == "" {
		e.EventID = fmt.Sprintf("ev-%d", len(m.order)+1)
	}
	if e.Status == "" {
		e.Status = model.EventDraft
	}
	cp := *e
	m.events[e.EventID] = &cp
	m.order = append(m.order, e.EventID)
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id string) (*model.Event, error) {
	if e, ok := m.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEventRepo) List(_ context.Context, filter repository.EventFilter, offset, limit int) ([]model.Event, int64, error) {
	var all []model.Event
	for i := len(m.order) - 1; i >= 0; i-- {
		e, ok := m.events[m.order[i]]
		if !ok {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.EventType != "" && e.EventType != filter.EventType {
			continue
		}
		if filter.Keyword != "" && !containsFold(e.Title, filter.Keyword) {
			continue
		}
		all = append(all, *e)
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockEventRepo) Update(_ context.Context, e *model.Event) error {
	if _, ok := m.events[e.EventID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *e
	m.events[e.EventID] = &cp
	return nil
}

func (m *mockEventRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.events, id)
	return nil
}

// ── Mock EventRegistrationRepository ──

type mockRegistrationRepo struct {
	regs      []*model.EventRegistration
	users     *mockUserRepo
	createErr error
}

func newMockRegistrationRepo(users *mockUserRepo) *mockRegistrationRepo {
	return &mockRegistrationRepo{users: users}
}

// withUser 模拟 Preload("User")
func (m *mockRegistrationRepo) withUser(r *model.EventRegistration) model.EventRegistration {
	cp := *r
	if m.users != nil {
		if u, ok := m.users.users[cp.UserID]; ok {
			cp.User = u
		}
	}
	return cp
}

func (m *mockRegistrationRepo) Create(_ context.Context, r *model.EventRegistration) error {
	if m.createErr != nil {
		return m.createErr
	}
	if r.RegistrationID == "" {
		r.RegistrationID = fmt.Sprintf("reg-%d", len(m.regs)+1)
	}
	if r.Status == "" {
		r.Status = model.RegistrationRegistered
	}
	if r.RegisteredAt.IsZero() {
		r.RegisteredAt = time.Date(2026, 1, 1, 9, 0, len(m.regs), 0, time.UTC)
	}
	cp := *r
	m.regs = append(m.regs, &cp)
	return nil
}

func (m *mockRegistrationRepo) GetByID(_ context.Context, id string) (*model.EventRegistration, error) {
	for _, r := range m.regs {
		if r.RegistrationID == id {
			cp := m.withUser(r)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRegistrationRepo) GetByEventAndUser(_ context.Context, eventID, userID string) (*model.EventRegistration, error) {
	for _, r := range m.regs {
		if r.EventID == eventID && r.UserID == userID {
			cp := m.withUser(r)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRegistrationRepo) ListByEvent(_ context.Context, eventID string, filter repository.RegistrationFilter, offset, limit int) ([]model.EventRegistration, int64, error) {
	var all []model.EventRegistration
	for i := len(m.regs) - 1; i >= 0; i-- {
		r := m.withUser(m.regs[i])
		if r.EventID != eventID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Keyword != "" {
			if r.User == nil || (!containsFold(r.User.Name, filter.Keyword) && !containsFold(r.User.Email, filter.Keyword)) {
				continue
			}
		}
		all = append(all, r)
	}
	if limit <= 0 {
		return all, int64(len(all)), nil
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockRegistrationRepo) CountActive(_ context.Context, eventIDs []string) (map[string]int64, error) {
	result := make(map[string]int64)
	for _, id := range eventIDs {
		for _, r := range m.regs {
			if r.EventID == id && r.Status != model.RegistrationCancelled {
				result[id]++
			}
		}
	}
	return result, nil
}

func (m *mockRegistrationRepo) Update(_ context.Context, reg *model.EventRegistration) error {
	for i, r := range m.regs {
		if r.RegistrationID == reg.RegistrationID {
			cp := *reg
			cp.User = nil
			m.regs[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock CheckInCodeRepository ──

type mockCheckInCodeRepo struct {
	codes map[string]*model.CheckInCode
	order []string
}

func newMockCheckInCodeRepo() *mockCheckInCodeRepo {
	return &mockCheckInCodeRepo{codes: make(map[string]*model.CheckInCode)}
}

func (m *mockCheckInCodeRepo) Create(_ context.Context, c *model.CheckInCode) error {
	for _, existing := range m.codes {
		if existing.Code == c.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	if c.CodeID == "" {
		c.CodeID = fmt.Sprintf("code-%d", len(m.order)+1)
	}
	cp := *c
	m.codes[c.CodeID] = &cp
	m.order = append(m.order, c.CodeID)
	return nil
}

func (m *mockCheckInCodeRepo) GetByID(_ context.Context, id string) (*model.CheckInCode, error) {
	if c, ok := m.codes[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCheckInCodeRepo) GetByCode(_ context.Context, code string) (*model.CheckInCode, error) {
	for _, c := range m.codes {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCheckInCodeRepo) ListByEvent(_ context.Context, eventID string) ([]model.CheckInCode, error) {
	var result []model.CheckInCode
	for i := len(m.order) - 1; i >= 0; i-- {
		if c, ok := m.codes[m.order[i]]; ok && c.EventID == eventID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockCheckInCodeRepo) Update(_ context.Context, c *model.CheckInCode) error {
	if _, ok := m.codes[c.CodeID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *c
	m.codes[c.CodeID] = &cp
	return nil
}

func (m *mockCheckInCodeRepo) IncrementUsed(_ context.Context, id string) error {
	c, ok := m.codes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.UsedCount++
	return nil
}

func (m *mockCheckInCodeRepo) Delete(_ context.Context, id string) error {
	delete(m.codes, id)
	return nil
}

func (m *mockCheckInCodeRepo) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, c := range m.codes {
		if c.IsActive && !c.ValidUntil.After(now) {
			c.IsActive = false
			n++
		}
	}
	return n, nil
}

// ── Mock EventReviewRepository ──

type mockReviewRepo struct {
	reviews []*model.EventReview
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{}
}

func (m *mockReviewRepo) Create(_ context.Context, r *model.EventReview) error {
	if r.ReviewID == "" {
		r.ReviewID = fmt.Sprintf("rv-%d", len(m.reviews)+1)
	}
	cp := *r
	m.reviews = append(m.reviews, &cp)
	return nil
}

func (m *mockReviewRepo) GetByID(_ context.Context, id string) (*model.EventReview, error) {
	for _, r := range m.reviews {
		if r.ReviewID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReviewRepo) GetByEventAndUser(_ context.Context, eventID, userID string) (*model.EventReview, error) {
	for _, r := range m.reviews {
		if r.EventID == eventID && r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReviewRepo) ListByEvent(_ context.Context, eventID string, offset, limit int) ([]model.EventReview, int64, error) {
	var all []model.EventReview
	for i := len(m.reviews) - 1; i >= 0; i-- {
		if m.reviews[i].EventID == eventID {
			all = append(all, *m.reviews[i])
		}
	}
	if limit <= 0 {
		return all, int64(len(all)), nil
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockReviewRepo) AverageRating(_ context.Context, eventID string) (float64, error) {
	var sum, n int
	for _, r := range m.reviews {
		if r.EventID == eventID {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func (m *mockReviewRepo) Delete(_ context.Context, id string) error {
	for i, r := range m.reviews {
		if r.ReviewID == id {
			m.reviews = append(m.reviews[:i], m.reviews[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock MentorProfileRepository ──

type mockProfileRepo struct {
	profiles map[string]*model.MentorProfile
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[string]*model.MentorProfile)}
}

func (m *mockProfileRepo) Create(_ context.Context, p *model.MentorProfile) error {
	if p.ProfileID == "" {
		p.ProfileID = fmt.Sprintf("prof-%d", len(m.profiles)+1)
	}
	if p.Version == 0 {
		p.Version = 1
	}
	cp := *p
	m.profiles[p.ProfileID] = &cp
	return nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, id string) (*model.MentorProfile, error) {
	if p, ok := m.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfileRepo) GetByUserID(_ context.Context, userID string) (*model.MentorProfile, error) {
	for _, p := range m.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfileRepo) Update(_ context.Context, p *model.MentorProfile) error {
	stored, ok := m.profiles[p.ProfileID]
	if !ok || stored.Version != p.Version {
		return pkgerrors.ErrOptimisticLock
	}
	p.Version++
	cp := *p
	m.profiles[p.ProfileID] = &cp
	return nil
}

// ── Mock MentorRegistrationRepository ──

type mockMentorRegRepo struct {
	regs []*model.MentorRegistration
}

func newMockMentorRegRepo() *mockMentorRegRepo {
	return &mockMentorRegRepo{}
}

func (m *mockMentorRegRepo) Create(_ context.Context, r *model.MentorRegistration) error {
	if r.RegistrationID == "" {
		r.RegistrationID = fmt.Sprintf("mreg-%d", len(m.regs)+1)
	}
	cp := *r
	m.regs = append(m.regs, &cp)
	return nil
}

func (m *mockMentorRegRepo) GetByID(_ context.Context, id string) (*model.MentorRegistration, error) {
	for _, r := range m.regs {
		if r.RegistrationID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMentorRegRepo) LatestByUser(_ context.Context, userID string) (*model.MentorRegistration, error) {
	for i := len(m.regs) - 1; i >= 0; i-- {
		if m.regs[i].UserID == userID {
			cp := *m.regs[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMentorRegRepo) List(_ context.Context, status string, offset, limit int) ([]model.MentorRegistration, int64, error) {
	var all []model.MentorRegistration
	for i := len(m.regs) - 1; i >= 0; i-- {
		if status == "" || m.regs[i].Status == status {
			all = append(all, *m.regs[i])
		}
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockMentorRegRepo) Update(_ context.Context, reg *model.MentorRegistration) error {
	for i, r := range m.regs {
		if r.RegistrationID == reg.RegistrationID {
			cp := *reg
			m.regs[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}
