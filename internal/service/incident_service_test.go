package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"
	"github.com/mjajones/notifiq-app/internal/repository/memory"
	"github.com/mjajones/notifiq-app/internal/utils"
	"github.com/mjajones/notifiq-app/pkg/logger"
)

type IncidentServiceSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
	svc   *IncidentService

	staff     *utils.Claims
	requester *utils.Claims
	otherUser *utils.Claims
}

func TestIncidentServiceSuite(t *testing.T) {
	suite.Run(t, new(IncidentServiceSuite))
}

func (s *IncidentServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.svc = NewIncidentService(s.store.Incidents(), s.store.StatusLabels(), s.store.Users(), nil, logger.New("test"))

	s.staff = s.newUser("agent@corp.test", "Ann", "Agent", []string{models.GroupITStaff})
	s.requester = s.newUser("bob@corp.test", "Bob", "Báez", []string{models.GroupEmployee})
	s.otherUser = s.newUser("carol@corp.test", "Carol", "Chen", []string{models.GroupEmployee})
}

func (s *IncidentServiceSuite) newUser(email, first, last string, groups []string) *utils.Claims {
	u := &models.User{Username: email, Email: email, FirstName: first, LastName: last, Groups: groups, IsActive: true}
	s.Require().NoError(s.store.Users().Create(s.ctx, u, "x"))
	return &utils.Claims{UserID: u.ID, Username: u.Username, Email: u.Email, Groups: u.Groups}
}

func (s *IncidentServiceSuite) openLabel() *models.StatusLabel {
	l := &models.StatusLabel{Name: models.StatusOpen}
	s.Require().NoError(s.store.StatusLabels().Create(s.ctx, l))
	return l
}

func (s *IncidentServiceSuite) create(caller *utils.Claims, title string) *models.Incident {
	inc, err := s.svc.Create(s.ctx, caller, &IncidentCreate{Title: title})
	s.Require().NoError(err)
	s.Require().NotNil(inc)
	return inc
}

func (s *IncidentServiceSuite) TestCreate() {
	s.Run("forces requester email to the caller", func() {
		inc := s.create(s.requester, "Laptop broken")
		s.Equal("bob@corp.test", inc.RequesterEmail)
	})

	s.Run("applies model defaults", func() {
		inc := s.create(s.requester, "Defaults")
		s.Equal("Medium", inc.Priority)
		s.Equal("phone", inc.Source)
		s.Equal("low", inc.Urgency)
		s.Equal("low", inc.Impact)
		s.Equal("Level 1 Helpdesk", inc.Group)
		s.Equal("IT", inc.Department)
		s.False(inc.SubmittedAt.IsZero())
	})

	s.Run("missing Open label leaves status null, not an error", func() {
		inc := s.create(s.requester, "No label")
		s.Nil(inc.Status)
	})

	s.Run("status defaults to the Open label when it exists", func() {
		open := s.openLabel()
		inc := s.create(s.requester, "With status")
		s.Require().NotNil(inc.Status)
		s.Equal(open.ID, inc.Status.ID)
		s.Equal(models.StatusOpen, inc.Status.Name)
	})

	s.Run("blank title is a validation error", func() {
		_, err := s.svc.Create(s.ctx, s.requester, &IncidentCreate{Title: "   "})
		var ve *ValidationError
		s.ErrorAs(err, &ve)
		s.Contains(ve.Fields, "title")
	})

	s.Run("unknown agent is a validation error", func() {
		bad := "no-such-id"
		_, err := s.svc.Create(s.ctx, s.requester, &IncidentCreate{Title: "T", AgentID: &bad})
		var ve *ValidationError
		s.ErrorAs(err, &ve)
		s.Contains(ve.Fields, "agent_id")
	})
}

func (s *IncidentServiceSuite) TestVisibility() {
	mine := s.create(s.requester, "Mine")
	theirs := s.create(s.otherUser, "Theirs")

	s.Run("staff list every incident", func() {
		items, err := s.svc.List(s.ctx, s.staff, repository.IncidentFilter{})
		s.Require().NoError(err)
		s.Len(items, 2)
	})

	s.Run("non-staff list only their own", func() {
		items, err := s.svc.List(s.ctx, s.requester, repository.IncidentFilter{})
		s.Require().NoError(err)
		s.Require().Len(items, 1)
		s.Equal(mine.ID, items[0].ID)
	})

	s.Run("requester_email filter cannot widen visibility", func() {
		items, err := s.svc.List(s.ctx, s.requester, repository.IncidentFilter{RequesterEmail: "carol@corp.test"})
		s.Require().NoError(err)
		s.Empty(items)
	})

	s.Run("invisible incident reads as missing", func() {
		inc, err := s.svc.Get(s.ctx, s.requester, theirs.ID)
		s.NoError(err)
		s.Nil(inc)
	})

	s.Run("invisible incident cannot be deleted", func() {
		deleted, err := s.svc.Delete(s.ctx, s.requester, theirs.ID)
		s.NoError(err)
		s.False(deleted)

		still, err := s.svc.Get(s.ctx, s.staff, theirs.ID)
		s.NoError(err)
		s.NotNil(still)
	})

	s.Run("list is newest-submitted-first", func() {
		items, err := s.svc.List(s.ctx, s.staff, repository.IncidentFilter{})
		s.Require().NoError(err)
		s.Require().Len(items, 2)
		s.Equal(theirs.ID, items[0].ID)
		s.Equal(mine.ID, items[1].ID)
	})
}

func (s *IncidentServiceSuite) TestListFilters() {
	s.openLabel()
	a := s.create(s.requester, "A")
	s.create(s.otherUser, "B")

	s.Run("status name filter", func() {
		items, err := s.svc.List(s.ctx, s.staff, repository.IncidentFilter{StatusName: models.StatusOpen})
		s.Require().NoError(err)
		s.Len(items, 2)
	})

	s.Run("agent filter", func() {
		_, err := s.svc.Update(s.ctx, s.staff, a.ID, &IncidentPatch{AgentID: Some(s.staff.UserID)})
		s.Require().NoError(err)

		items, err := s.svc.List(s.ctx, s.staff, repository.IncidentFilter{AgentID: s.staff.UserID})
		s.Require().NoError(err)
		s.Require().Len(items, 1)
		s.Equal(a.ID, items[0].ID)
	})

	s.Run("requester email filter for staff", func() {
		items, err := s.svc.List(s.ctx, s.staff, repository.IncidentFilter{RequesterEmail: "bob@corp.test"})
		s.Require().NoError(err)
		s.Require().Len(items, 1)
		s.Equal(a.ID, items[0].ID)
	})
}

func (s *IncidentServiceSuite) TestUpdateAuditDiff() {
	s.Run("changing a field appends exactly one diff entry", func() {
		inc := s.create(s.requester, "Printer jam")
		prio := "High"
		updated, err := s.svc.Update(s.ctx, s.staff, inc.ID, &IncidentPatch{Priority: &prio})
		s.Require().NoError(err)

		s.Require().Len(updated.ActivityLog, 1)
		entry := updated.ActivityLog[0]
		s.Equal("Priority Change", entry.ActivityType)
		s.Equal("Medium", *entry.OldValue)
		s.Equal("High", *entry.NewValue)
		s.Require().NotNil(entry.User)
		s.Equal("Ann Agent", *entry.User)
	})

	s.Run("writing the same value appends nothing", func() {
		inc := s.create(s.requester, "Same value")
		same := "Medium"
		updated, err := s.svc.Update(s.ctx, s.staff, inc.ID, &IncidentPatch{Priority: &same})
		s.Require().NoError(err)
		s.Empty(updated.ActivityLog)
	})

	s.Run("multiple changed fields log one entry each", func() {
		inc := s.create(s.requester, "Multi")
		title := "Multi renamed"
		urgency := "high"
		updated, err := s.svc.Update(s.ctx, s.staff, inc.ID, &IncidentPatch{Title: &title, Urgency: &urgency})
		s.Require().NoError(err)

		s.Require().Len(updated.ActivityLog, 2)
		types := []string{updated.ActivityLog[0].ActivityType, updated.ActivityLog[1].ActivityType}
		s.Contains(types, "Title Change")
		s.Contains(types, "Urgency Change")
	})

	s.Run("internal_note always appends a Note Added entry", func() {
		inc := s.create(s.requester, "Note only")
		note := "called the user, no answer"
		updated, err := s.svc.Update(s.ctx, s.staff, inc.ID, &IncidentPatch{InternalNote: &note})
		s.Require().NoError(err)

		s.Require().Len(updated.ActivityLog, 1)
		s.Equal(models.ActivityNoteAdded, updated.ActivityLog[0].ActivityType)
		s.Equal(note, *updated.ActivityLog[0].Note)
	})

	s.Run("note plus field change appends both", func() {
		inc := s.create(s.requester, "Both")
		note := "bumped"
		prio := "Critical"
		updated, err := s.svc.Update(s.ctx, s.staff, inc.ID, &IncidentPatch{Priority: &prio, InternalNote: &note})
		s.Require().NoError(err)
		s.Len(updated.ActivityLog, 2)
	})

	s.Run("status change logs label names", func() {
		s.openLabel()
		resolved := &models.StatusLabel{Name: "Resolved"}
		s.Require().NoError(s.store.StatusLabels().Create(s.ctx, resolved))

		inc := s.create(s.requester, "Status move")
		s.Require().NotNil(inc.Status)

		updated, err := s.svc.Update(s.ctx, s.staff, inc.ID, &IncidentPatch{StatusID: Some(resolved.ID)})
		s.Require().NoError(err)

		s.Require().Len(updated.ActivityLog, 1)
		s.Equal("Status Change", updated.ActivityLog[0].ActivityType)
		s.Equal("Open", *updated.ActivityLog[0].OldValue)
		s.Equal("Resolved", *updated.ActivityLog[0].NewValue)
		s.Require().NotNil(updated.Status)
		s.Equal("Resolved", updated.Status.Name)
	})

	s.Run("agent assignment and clearing log usernames", func() {
		inc := s.create(s.requester, "Assignment")

		updated, err := s.svc.Update(s.ctx, s.staff, inc.ID, &IncidentPatch{AgentID: Some(s.staff.UserID)})
		s.Require().NoError(err)
		s.Require().Len(updated.ActivityLog, 1)
		s.Equal("Agent Change", updated.ActivityLog[0].ActivityType)
		s.Equal("None", *updated.ActivityLog[0].OldValue)
		s.Equal("agent@corp.test", *updated.ActivityLog[0].NewValue)

		updated, err = s.svc.Update(s.ctx, s.staff, inc.ID, &IncidentPatch{AgentID: Null[string]()})
		s.Require().NoError(err)
		s.Require().Len(updated.ActivityLog, 2)
		s.Equal("agent@corp.test", *updated.ActivityLog[1].OldValue)
		s.Equal("None", *updated.ActivityLog[1].NewValue)
		s.Nil(updated.Agent)
	})

	s.Run("validation failure persists neither logs nor fields", func() {
		inc := s.create(s.requester, "Atomic")
		title := "Would change"
		_, err := s.svc.Update(s.ctx, s.staff, inc.ID, &IncidentPatch{
			Title:    &title,
			StatusID: Some(int64(9999)),
		})
		var ve *ValidationError
		s.Require().ErrorAs(err, &ve)
		s.Contains(ve.Fields, "status_id")

		fresh, err := s.svc.Get(s.ctx, s.staff, inc.ID)
		s.Require().NoError(err)
		s.Equal("Atomic", fresh.Title)
		s.Empty(fresh.ActivityLog)
	})

	s.Run("null status_id is rejected", func() {
		inc := s.create(s.requester, "Null status")
		_, err := s.svc.Update(s.ctx, s.staff, inc.ID, &IncidentPatch{StatusID: Null[int64]()})
		var ve *ValidationError
		s.ErrorAs(err, &ve)
	})

	s.Run("tags change is tracked", func() {
		inc := s.create(s.requester, "Tagged")
		tags := []string{"vpn", "network"}
		updated, err := s.svc.Update(s.ctx, s.staff, inc.ID, &IncidentPatch{Tags: &tags})
		s.Require().NoError(err)
		s.Require().Len(updated.ActivityLog, 1)
		s.Equal("Tags Change", updated.ActivityLog[0].ActivityType)
		s.Equal("[]", *updated.ActivityLog[0].OldValue)
		s.Equal("[vpn, network]", *updated.ActivityLog[0].NewValue)
	})
}

func (s *IncidentServiceSuite) TestDuplicate() {
	s.openLabel()
	orig := s.create(s.requester, "Broken monitor")
	dept := "Facilities"
	tags := []string{"hw"}
	_, err := s.svc.Update(s.ctx, s.staff, orig.ID, &IncidentPatch{
		Department: &dept,
		Tags:       &tags,
		AgentID:    Some(s.staff.UserID),
	})
	s.Require().NoError(err)

	s.Run("copies fields, clears identity, status and agent", func() {
		dup, err := s.svc.Duplicate(s.ctx, s.staff, orig.ID)
		s.Require().NoError(err)
		s.Require().NotNil(dup)

		s.NotEqual(orig.ID, dup.ID)
		s.Equal("[DUPLICATE] Broken monitor", dup.Title)
		s.Nil(dup.Status)
		s.Nil(dup.Agent)
		s.Equal("Facilities", dup.Department)
		s.Equal([]string{"hw"}, dup.Tags)
		s.Equal("bob@corp.test", dup.RequesterEmail)
		s.Empty(dup.ActivityLog)
	})

	s.Run("invisible incident cannot be duplicated", func() {
		dup, err := s.svc.Duplicate(s.ctx, s.otherUser, orig.ID)
		s.NoError(err)
		s.Nil(dup)
	})
}

func (s *IncidentServiceSuite) TestCheckSerialization() {
	s.create(s.requester, "One")
	s.create(s.otherUser, "Two")
	s.NoError(s.svc.CheckSerialization(s.ctx))
}
