package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/notesphere/note-sync-service/internal/domain"
)

// 服务层测试共用的内存仓储替身，只实现被测路径用到的方法

type mockNoteRepo struct {
	domain.NoteRepository
	notes          map[int64]*domain.Note
	nextID         int64
	pointerUpdates int
}

func newMockNoteRepo(notes ...*domain.Note) *mockNoteRepo {
	m := &mockNoteRepo{notes: make(map[int64]*domain.Note), nextID: 1000}
	for _, n := range notes {
		m.notes[n.ID] = n
	}
	return m
}

func (m *mockNoteRepo) GetByID(ctx context.Context, id int64) (*domain.Note, error) {
	return m.notes[id], nil
}

func (m *mockNoteRepo) Create(ctx context.Context, note *domain.Note, uid int64) (*domain.Note, error) {
	m.nextID++
	note.ID = m.nextID
	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt
	m.notes[note.ID] = note
	return note, nil
}

func (m *mockNoteRepo) UpdateCurrentVersion(ctx context.Context, noteID, versionID, sequence int64, title string, editorUID int64) error {
	note, ok := m.notes[noteID]
	if !ok {
		return fmt.Errorf("note %d not found", noteID)
	}
	note.CurrentVersionID = versionID
	note.CurrentSequence = sequence
	note.Title = title
	note.LastEditorUID = editorUID
	m.pointerUpdates++
	return nil
}

func (m *mockNoteRepo) UpdatePrivacy(ctx context.Context, noteID int64, isPrivate bool, uid int64) error {
	if note, ok := m.notes[noteID]; ok {
		note.IsPrivate = isPrivate
	}
	return nil
}

func (m *mockNoteRepo) List(ctx context.Context, uid int64, page, pageSize int) ([]*domain.Note, error) {
	var owned []*domain.Note
	for _, n := range m.notes {
		if n.UID == uid {
			owned = append(owned, n)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID > owned[j].ID })
	start := (page - 1) * pageSize
	if start < 0 || start >= len(owned) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(owned) {
		end = len(owned)
	}
	return owned[start:end], nil
}

func (m *mockNoteRepo) ListCount(ctx context.Context, uid int64) (int64, error) {
	var count int64
	for _, n := range m.notes {
		if n.UID == uid {
			count++
		}
	}
	return count, nil
}

type mockVersionRepo struct {
	domain.VersionRepository
	versions  map[int64]*domain.NoteVersion
	histories []*domain.NoteHistory
	nextID    int64
	createErr error
}

func newMockVersionRepo(versions ...*domain.NoteVersion) *mockVersionRepo {
	m := &mockVersionRepo{versions: make(map[int64]*domain.NoteVersion), nextID: 100}
	for _, v := range versions {
		m.versions[v.ID] = v
		if v.ID > m.nextID {
			m.nextID = v.ID
		}
	}
	return m
}

func (m *mockVersionRepo) GetByID(ctx context.Context, id int64) (*domain.NoteVersion, error) {
	return m.versions[id], nil
}

func (m *mockVersionRepo) GetByNoteAndHash(ctx context.Context, noteID int64, contentHash string) (*domain.NoteVersion, error) {
	for _, v := range m.versions {
		if v.NoteID == noteID && v.ContentHash == contentHash {
			return v, nil
		}
	}
	return nil, nil
}

func (m *mockVersionRepo) Create(ctx context.Context, version *domain.NoteVersion, history *domain.NoteHistory, uid int64) (*domain.NoteVersion, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	version.ID = m.nextID
	if version.SequenceNumber == 0 {
		var maxSeq int64
		for _, v := range m.versions {
			if v.NoteID == version.NoteID && v.SequenceNumber > maxSeq {
				maxSeq = v.SequenceNumber
			}
		}
		version.SequenceNumber = maxSeq + 1
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now()
	}
	m.versions[version.ID] = version
	if history != nil {
		history.VersionID = version.ID
		m.histories = append(m.histories, history)
	}
	return version, nil
}

func (m *mockVersionRepo) UpdateSyncStatus(ctx context.Context, versionID int64, status domain.SyncStatus, uid int64) error {
	if v, ok := m.versions[versionID]; ok {
		v.SyncStatus = status
	}
	return nil
}

func (m *mockVersionRepo) ListByNote(ctx context.Context, noteID int64, limit int) ([]*domain.NoteVersion, error) {
	var results []*domain.NoteVersion
	for _, v := range m.versions {
		if v.NoteID == noteID {
			results = append(results, v)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID > results[j].ID })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *mockVersionRepo) ListByNoteAndStatuses(ctx context.Context, noteID int64, statuses []domain.SyncStatus) ([]*domain.NoteVersion, error) {
	allowed := make(map[domain.SyncStatus]struct{}, len(statuses))
	for _, s := range statuses {
		allowed[s] = struct{}{}
	}
	var results []*domain.NoteVersion
	for _, v := range m.versions {
		if v.NoteID != noteID {
			continue
		}
		if _, ok := allowed[v.SyncStatus]; ok {
			results = append(results, v)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID < results[j].ID
		}
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	return results, nil
}

type mockConflictRepo struct {
	domain.ConflictRepository
	conflicts map[int64]*domain.NoteConflict
	details   map[int64]*domain.ConflictDetail
	pairs     map[string]bool
	created   []*domain.NoteConflict
	applied   []*domain.ResolutionPlan
	applyErr  error
	pendings  []*domain.ConflictDetail
	listErr   error
	nextID    int64
}

func newMockConflictRepo() *mockConflictRepo {
	return &mockConflictRepo{
		conflicts: make(map[int64]*domain.NoteConflict),
		details:   make(map[int64]*domain.ConflictDetail),
		pairs:     make(map[string]bool),
		nextID:    500,
	}
}

func pairKey(noteID, a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d:%d", noteID, a, b)
}

func (m *mockConflictRepo) GetByID(ctx context.Context, id int64) (*domain.NoteConflict, error) {
	return m.conflicts[id], nil
}

func (m *mockConflictRepo) GetDetail(ctx context.Context, id int64) (*domain.ConflictDetail, error) {
	return m.details[id], nil
}

func (m *mockConflictRepo) ExistsPair(ctx context.Context, noteID, localVersionID, remoteVersionID int64) (bool, error) {
	return m.pairs[pairKey(noteID, localVersionID, remoteVersionID)], nil
}

func (m *mockConflictRepo) Create(ctx context.Context, conflict *domain.NoteConflict, history *domain.NoteHistory, uid int64) (*domain.NoteConflict, error) {
	m.nextID++
	conflict.ID = m.nextID
	conflict.CreatedAt = time.Now()
	m.conflicts[conflict.ID] = conflict
	m.pairs[pairKey(conflict.NoteID, conflict.LocalVersionID, conflict.RemoteVersionID)] = true
	m.created = append(m.created, conflict)
	return conflict, nil
}

func (m *mockConflictRepo) ListPendingByUser(ctx context.Context, uid int64, limit int) ([]*domain.ConflictDetail, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.pendings, nil
}

func (m *mockConflictRepo) ApplyResolution(ctx context.Context, plan *domain.ResolutionPlan, uid int64) (*domain.ResolutionResult, error) {
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	conflict, ok := m.conflicts[plan.ConflictID]
	if !ok || !conflict.IsPending() {
		return nil, domain.ErrConflictNotPending
	}
	m.applied = append(m.applied, plan)

	conflict.Status = plan.Status
	conflict.ResolutionType = plan.ResolutionType
	conflict.ResolvedBy = plan.ResolvedBy
	conflict.ResolvedAt = plan.ResolvedAt

	resolvedID := plan.ResolvedVersionID
	if plan.MergeVersion != nil {
		resolvedID = 9001
	}
	conflict.ResolvedVersionID = resolvedID

	var separated []int64
	for i := range plan.SeparatedNotes {
		separated = append(separated, 8001+int64(i))
	}
	return &domain.ResolutionResult{
		ConflictID:        plan.ConflictID,
		NoteID:            plan.NoteID,
		ResolutionType:    plan.ResolutionType,
		Status:            plan.Status,
		ResolvedVersionID: resolvedID,
		SeparatedNoteIDs:  separated,
		ResolvedAt:        plan.ResolvedAt,
	}, nil
}

type mockUserRepo struct {
	domain.UserRepository
	users  map[int64]*domain.User
	nextID int64
}

func newMockUserRepo(users ...*domain.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[int64]*domain.User), nextID: 10}
	for _, u := range users {
		m.users[u.UID] = u
	}
	return m
}

func (m *mockUserRepo) GetByUID(ctx context.Context, uid int64) (*domain.User, error) {
	return m.users[uid], nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	m.nextID++
	user.UID = m.nextID
	user.CreatedAt = time.Now()
	m.users[user.UID] = user
	return user, nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, password string, uid int64) error {
	if u, ok := m.users[uid]; ok {
		u.Password = password
	}
	return nil
}

func (m *mockUserRepo) GetAllUIDs(ctx context.Context) ([]int64, error) {
	var uids []int64
	for uid := range m.users {
		uids = append(uids, uid)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids, nil
}

type mockHistoryRepo struct {
	domain.HistoryRepository
	entries []*domain.NoteHistory
	nextID  int64
}

func (m *mockHistoryRepo) Create(ctx context.Context, history *domain.NoteHistory, uid int64) (*domain.NoteHistory, error) {
	m.nextID++
	history.ID = m.nextID
	history.CreatedAt = time.Now()
	m.entries = append(m.entries, history)
	return history, nil
}

func (m *mockHistoryRepo) ListByNote(ctx context.Context, noteID int64, limit int) ([]*domain.NoteHistory, error) {
	var results []*domain.NoteHistory
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].NoteID == noteID {
			results = append(results, m.entries[i])
		}
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (m *mockHistoryRepo) ListByUser(ctx context.Context, uid int64, limit int) ([]*domain.NoteHistory, error) {
	var results []*domain.NoteHistory
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].UID == uid {
			results = append(results, m.entries[i])
		}
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (m *mockHistoryRepo) Stats(ctx context.Context, noteID int64, since time.Time) ([]*domain.ActivityStat, error) {
	counts := make(map[domain.HistoryAction]int64)
	users := make(map[domain.HistoryAction]map[int64]struct{})
	for _, e := range m.entries {
		if e.NoteID != noteID || e.CreatedAt.Before(since) {
			continue
		}
		counts[e.Action]++
		if users[e.Action] == nil {
			users[e.Action] = make(map[int64]struct{})
		}
		users[e.Action][e.UID] = struct{}{}
	}
	var results []*domain.ActivityStat
	for action, count := range counts {
		results = append(results, &domain.ActivityStat{
			Action:    action,
			Count:     count,
			UserCount: int64(len(users[action])),
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Action < results[j].Action })
	return results, nil
}

type mockShareRepo struct {
	domain.ShareRepository
	shares map[string]*domain.NoteShare
	nextID int64
}

func newMockShareRepo() *mockShareRepo {
	return &mockShareRepo{shares: make(map[string]*domain.NoteShare)}
}

func shareKey(noteID, targetUID int64) string {
	return fmt.Sprintf("%d:%d", noteID, targetUID)
}

func (m *mockShareRepo) Create(ctx context.Context, share *domain.NoteShare) (*domain.NoteShare, error) {
	m.nextID++
	share.ID = m.nextID
	share.CreatedAt = time.Now()
	m.shares[shareKey(share.NoteID, share.TargetUID)] = share
	return share, nil
}

func (m *mockShareRepo) Get(ctx context.Context, noteID, targetUID int64) (*domain.NoteShare, error) {
	return m.shares[shareKey(noteID, targetUID)], nil
}

func (m *mockShareRepo) ListByNote(ctx context.Context, noteID int64) ([]*domain.NoteShare, error) {
	var results []*domain.NoteShare
	for _, s := range m.shares {
		if s.NoteID == noteID {
			results = append(results, s)
		}
	}
	return results, nil
}

func (m *mockShareRepo) ListByTarget(ctx context.Context, targetUID int64) ([]*domain.NoteShare, error) {
	var results []*domain.NoteShare
	for _, s := range m.shares {
		if s.TargetUID == targetUID {
			results = append(results, s)
		}
	}
	return results, nil
}

func (m *mockShareRepo) Delete(ctx context.Context, noteID, targetUID int64) error {
	delete(m.shares, shareKey(noteID, targetUID))
	return nil
}

// capturePusher 记录推送事件，断言通知行为
type capturePusher struct {
	events []capturedEvent
}

type capturedEvent struct {
	UID    int64
	Action string
	Data   any
}

func (p *capturePusher) PushToUser(uid int64, action string, data any) {
	p.events = append(p.events, capturedEvent{UID: uid, Action: action, Data: data})
}
