// Package seed creates demo groups, posts and comments for development
// databases and installs the badge catalog.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"memoria/internal/models"
	"memoria/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the group, post and comment password of every seeded row.
const DemoPassword = "password123"

var demoTags = []string{
	"travel", "family", "friends", "food", "hiking", "sea", "camping",
	"birthday", "graduation", "concert", "festival", "winter", "summer", "pets",
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	posts repository.PostRepository
	opts  Options
	rng   *rand.Rand
	hash  string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a Factory bound to db. The demo password is hashed once
// with cost and shared by every built row.
func NewFactory(db *gorm.DB, opts Options, cost int) (*Factory, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)

	f := &Factory{
		db:     db,
		opts:   opts,
		rng:    rand.New(rand.NewSource(seed)), // #nosec G404: demo data only
		hash:   string(hash),
		nextID: 1000,
	}
	if db != nil {
		f.posts = repository.NewPostRepository(db)
	}
	return f, nil
}

// BuildGroup returns an unsaved group with a realistic name and age.
func (f *Factory) BuildGroup(overrides ...func(*models.Group)) *models.Group {
	g := &models.Group{
		Name:         truncate(fmt.Sprintf("%s %s", gofakeit.Adjective(), gofakeit.Hobby()), 100),
		Password:     f.hash,
		ImageURL:     fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID()),
		IsPublic:     f.rng.Intn(4) != 0,
		Introduction: gofakeit.Sentence(12),
		LikeCount:    int64(f.rng.Intn(50)),
		CreatedAt:    f.pastTime(),
	}
	for _, o := range overrides {
		o(g)
	}
	return g
}

// CreateGroup builds and inserts a group.
func (f *Factory) CreateGroup(overrides ...func(*models.Group)) (*models.Group, error) {
	g := f.BuildGroup(overrides...)
	if f.opts.DryRun {
		g.ID = f.synthID()
		return g, nil
	}
	if err := f.db.Create(g).Error; err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

// BuildPost returns an unsaved post inside group. Creation times fall
// between the group's creation and now.
func (f *Factory) BuildPost(group *models.Group, overrides ...func(*models.Post)) *models.Post {
	created := f.timeAfter(group.CreatedAt)
	p := &models.Post{
		GroupID:   group.ID,
		Nickname:  truncate(gofakeit.FirstName(), 50),
		Title:     truncate(strings.TrimSuffix(gofakeit.Sentence(5), "."), 200),
		Content:   gofakeit.Paragraph(1, 3, 12, "\n"),
		Password:  f.hash,
		Location:  gofakeit.City(),
		Moment:    created.Add(-time.Duration(f.rng.Intn(72)) * time.Hour),
		IsPublic:  f.rng.Intn(5) != 0,
		LikeCount: int64(f.rng.Intn(30)),
		CreatedAt: created,
	}
	if f.rng.Intn(2) == 0 {
		p.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
	}
	for _, o := range overrides {
		o(p)
	}
	return p
}

// CreatePost builds a post with up to three demo tags and stores it through
// the post repository so tags are linked the same way the API links them.
func (f *Factory) CreatePost(ctx context.Context, group *models.Group, overrides ...func(*models.Post)) (*models.Post, error) {
	p := f.BuildPost(group, overrides...)
	tags := f.pickTags()
	if f.opts.DryRun {
		p.ID = f.synthID()
		p.Tags = tags
		return p, nil
	}
	if err := f.posts.Create(ctx, p, tags); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

// CreateComment builds and inserts a comment on post.
func (f *Factory) CreateComment(post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	c := &models.Comment{
		PostID:    post.ID,
		Nickname:  truncate(gofakeit.FirstName(), 50),
		Content:   gofakeit.Sentence(8),
		Password:  f.hash,
		CreatedAt: f.timeAfter(post.CreatedAt),
	}
	for _, o := range overrides {
		o(c)
	}
	if f.opts.DryRun {
		c.ID = f.synthID()
		return c, nil
	}
	if err := f.db.Create(c).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

func (f *Factory) pickTags() []string {
	n := f.rng.Intn(4)
	tags := make([]string, 0, n)
	for _, i := range f.rng.Perm(len(demoTags))[:n] {
		tags = append(tags, demoTags[i])
	}
	return tags
}

func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 400
	}
	back := time.Duration(f.rng.Intn(maxDays*24)) * time.Hour
	return time.Now().UTC().Add(-back - time.Hour)
}

func (f *Factory) timeAfter(start time.Time) time.Time {
	span := time.Since(start)
	if span <= time.Minute {
		return start
	}
	return start.Add(time.Duration(f.rng.Int63n(int64(span))))
}

func (f *Factory) synthID() uint {
	id := f.nextID
	f.nextID++
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
