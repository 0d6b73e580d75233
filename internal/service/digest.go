package service

import (
	"context"
	"time"

	"github.com/clerk/clerk-sdk-go/v2/user"

	"github.com/pharmintel/pharmintel/internal/digest"
	"github.com/pharmintel/pharmintel/internal/lib/email"
	"github.com/pharmintel/pharmintel/internal/model"
	"github.com/pharmintel/pharmintel/internal/repository"
	"github.com/pharmintel/pharmintel/internal/server"
)

// DigestService turns detected trial changes into persisted digests and
// resolves who gets notified about them.
type DigestService struct {
	server    *server.Server
	repos     *repository.Repositories
	mailer    *email.Client
	threshold digest.Level
}

func NewDigestService(s *server.Server, repos *repository.Repositories, mailer *email.Client) *DigestService {
	return &DigestService{
		server:    s,
		repos:     repos,
		mailer:    mailer,
		threshold: digest.ParseLevel(s.Config.Digest.EmailThreshold),
	}
}

// Record builds a digest from the changes and persists it. The second
// return reports whether the digest clears the email threshold; a run
// with no changes returns (nil, false, nil) and persists nothing.
func (s *DigestService) Record(ctx context.Context, changes []digest.Change, drugNames map[int64]string) (*model.Digest, bool, error) {
	d := digest.Build(changes, drugNames, time.Now())
	if d == nil {
		return nil, false, nil
	}

	if err := s.repos.Digests.Create(ctx, d); err != nil {
		return nil, false, err
	}

	notify := s.mailer.Enabled() && digest.Level(d.Significance).AtLeast(s.threshold)
	return d, notify, nil
}

// List returns recent digests without their events, optionally cut off at
// a point in time.
func (s *DigestService) List(ctx context.Context, limit int, since time.Time) ([]model.Digest, error) {
	return s.repos.Digests.List(ctx, limit, since)
}

// Get loads one digest with its events.
func (s *DigestService) Get(ctx context.Context, id int64) (*model.Digest, error) {
	return s.repos.Digests.Get(ctx, id)
}

// Recipients resolves the email addresses to notify about a digest: the
// users watching any drug the digest touches, looked up through Clerk,
// capped at the configured maximum.
func (s *DigestService) Recipients(ctx context.Context, d *model.Digest) ([]string, error) {
	drugIDs := make([]int64, 0, len(d.Events))
	seen := make(map[int64]bool)
	for _, e := range d.Events {
		if !seen[e.DrugID] {
			seen[e.DrugID] = true
			drugIDs = append(drugIDs, e.DrugID)
		}
	}

	watchers, err := s.repos.Watchlists.WatchersOfDrugs(ctx, drugIDs)
	if err != nil {
		return nil, err
	}

	maxRecipients := s.server.Config.Digest.MaxRecipients
	var recipients []string
	for _, userID := range watchers {
		if maxRecipients > 0 && len(recipients) >= maxRecipients {
			break
		}
		address, err := s.primaryEmail(ctx, userID)
		if err != nil {
			s.server.Logger.Warn().Err(err).Str("user_id", userID).Msg("recipient lookup failed")
			continue
		}
		if address != "" {
			recipients = append(recipients, address)
		}
	}
	return recipients, nil
}

// primaryEmail fetches a user's primary email address from Clerk.
func (s *DigestService) primaryEmail(ctx context.Context, userID string) (string, error) {
	u, err := user.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	for _, addr := range u.EmailAddresses {
		if u.PrimaryEmailAddressID != nil && addr.ID == *u.PrimaryEmailAddressID {
			return addr.EmailAddress, nil
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress, nil
	}
	return "", nil
}
