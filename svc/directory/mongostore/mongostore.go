// Package mongostore implements directory.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
)

const (
	colTenants       = "tenants"
	colItems         = "items"
	colCategories    = "categories"
	colUsers         = "users"
	colBookmarks     = "bookmarks"
	colReviews       = "reviews"
	colConversations = "conversations"
	colMessages      = "messages"
)

type Store struct {
	db    *mongo.Database
	clock func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{db: db, clock: time.Now}
}

var _ directory.Store = (*Store)(nil)

func (s *Store) now() time.Time {
	return s.clock().UTC().Truncate(time.Millisecond)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func newID() string {
	return bson.NewObjectID().Hex()
}

// mapErr translates driver errors into directory errors.
func mapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return directory.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, directory.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// EnsureIndexes creates the indexes the queries rely on. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colTenants: {
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "owners", Value: 1}}},
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "status", Value: 1}, {Key: "name", Value: 1}}},
		},
		colItems: {
			{Keys: bson.D{{Key: "owner.kind", Value: 1}, {Key: "owner.id", Value: 1}, {Key: "family", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colUsers: {
			{Keys: bson.D{{Key: "external_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colBookmarks: {
			{Keys: bson.D{{Key: "principal", Value: 1}, {Key: "kind", Value: 1}, {Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colReviews: {
			{Keys: bson.D{{Key: "target.kind", Value: 1}, {Key: "target.id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colConversations: {
			{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "participants.kind", Value: 1}, {Key: "participants.id", Value: 1}}},
		},
		colMessages: {
			{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := s.col(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func pageOptions(page directory.Page, sort bson.D) *options.FindOptionsBuilder {
	page = page.Normalize()
	return options.Find().
		SetSort(sort).
		SetSkip(int64(page.Offset)).
		SetLimit(int64(page.Limit))
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter any, opts ...options.Lister[options.FindOptions]) ([]T, error) {
	cur, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) MembershipFor(ctx context.Context, principal string, kind directory.Kind) (*directory.Tenant, error) {
	var t directory.Tenant
	err := s.col(colTenants).FindOne(ctx, bson.M{
		"kind":   kind,
		"status": directory.TenantActive,
		"owners": principal,
	}).Decode(&t)
	if err != nil {
		return nil, mapErr("membership", err)
	}
	return &t, nil
}

func (s *Store) TenantByID(ctx context.Context, kind directory.Kind, id string) (*directory.Tenant, error) {
	var t directory.Tenant
	err := s.col(colTenants).FindOne(ctx, bson.M{
		"_id":    id,
		"kind":   kind,
		"status": directory.TenantActive,
	}).Decode(&t)
	if err != nil {
		return nil, mapErr("tenant by id", err)
	}
	return &t, nil
}

func (s *Store) ListTenants(ctx context.Context, kind directory.Kind, filter directory.TenantFilter, page directory.Page) ([]directory.Tenant, int, error) {
	q := bson.M{"kind": kind, "status": directory.TenantActive}
	if filter.Category != "" {
		q["category"] = filter.Category
	}
	if filter.City != "" {
		q["city"] = bson.M{"$regex": "^" + regexp.QuoteMeta(filter.City) + "$", "$options": "i"}
	}

	total, err := s.col(colTenants).CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, mapErr("count tenants", err)
	}
	tenants, err := findAll[directory.Tenant](ctx, s.col(colTenants), q,
		pageOptions(page, bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, 0, mapErr("list tenants", err)
	}
	return tenants, int(total), nil
}

func (s *Store) CreateTenant(ctx context.Context, t directory.Tenant) (*directory.Tenant, error) {
	if !t.Kind.IsTenant() {
		return nil, fmt.Errorf("%w: kind %q", directory.ErrInvalidInput, t.Kind)
	}
	if t.ID == "" {
		t.ID = newID()
	}
	if t.Status == "" {
		t.Status = directory.TenantPending
	}
	now := s.now()
	t.CreatedAt, t.UpdatedAt = now, now
	if _, err := s.col(colTenants).InsertOne(ctx, t); err != nil {
		return nil, mapErr("create tenant", err)
	}
	return &t, nil
}

func (s *Store) UpdateTenantProfile(ctx context.Context, ref directory.TenantRef, principal string, p directory.TenantProfile) (*directory.Tenant, error) {
	var t directory.Tenant
	err := s.col(colTenants).FindOneAndUpdate(ctx,
		bson.M{"_id": ref.ID, "kind": ref.Kind, "owners": principal},
		bson.M{"$set": bson.M{
			"name":        p.Name,
			"name_ar":     p.NameAr,
			"description": p.Description,
			"category":    p.CategoryCode,
			"city":        p.City,
			"email":       p.Email,
			"phone":       p.Phone,
			"website":     p.Website,
			"logo":        p.LogoURL,
			"updated_at":  s.now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if err != nil {
		return nil, mapErr("update tenant", err)
	}
	return &t, nil
}

func scopeFilter(scope directory.Scope) bson.M {
	filter := bson.M{
		"owner.kind": scope.Owner.Kind,
		"owner.id":   scope.Owner.ID,
		"family":     scope.Family,
	}
	if scope.Status != "" {
		filter["status"] = scope.Status
	}
	return filter
}

func (s *Store) ListItems(ctx context.Context, scope directory.Scope, page directory.Page) ([]directory.Item, error) {
	items, err := findAll[directory.Item](ctx, s.col(colItems), scopeFilter(scope),
		pageOptions(page, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, mapErr("list items", err)
	}
	return items, nil
}

func (s *Store) ItemStats(ctx context.Context, scope directory.Scope) (directory.Stats, error) {
	cur, err := s.col(colItems).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: scopeFilter(scope)}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return directory.Stats{}, mapErr("item stats", err)
	}
	var rows []struct {
		Status directory.ItemStatus `bson:"_id"`
		N      int                  `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return directory.Stats{}, mapErr("item stats", err)
	}

	var stats directory.Stats
	for _, row := range rows {
		for range row.N {
			stats.Count(row.Status)
		}
	}
	return stats, nil
}

func (s *Store) CreateItem(ctx context.Context, it directory.Item) (*directory.Item, error) {
	if !it.Owner.Kind.IsTenant() || it.Owner.ID == "" || !it.Family.Writable() {
		return nil, directory.ErrInvalidInput
	}
	it.ID = newID()
	if it.Status == "" {
		it.Status = directory.ItemDraft
	}
	now := s.now()
	it.CreatedAt, it.UpdatedAt = now, now
	if _, err := s.col(colItems).InsertOne(ctx, it); err != nil {
		return nil, mapErr("create item", err)
	}
	return &it, nil
}

func (s *Store) UpdateItem(ctx context.Context, scope directory.Scope, id string, patch directory.ItemPatch) (*directory.Item, error) {
	set := bson.M{"updated_at": s.now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.ImageURL != nil {
		set["image"] = *patch.ImageURL
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}

	filter := scopeFilter(scope)
	filter["_id"] = id

	var it directory.Item
	err := s.col(colItems).FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&it)
	if err != nil {
		return nil, mapErr("update item", err)
	}
	return &it, nil
}

func (s *Store) DeleteItem(ctx context.Context, scope directory.Scope, id string) error {
	filter := scopeFilter(scope)
	filter["_id"] = id

	res, err := s.col(colItems).DeleteOne(ctx, filter)
	if err != nil {
		return mapErr("delete item", err)
	}
	if res.DeletedCount == 0 {
		return directory.ErrNotFound
	}
	return nil
}

func (s *Store) PublicOffers(ctx context.Context, kind directory.Kind) ([]directory.Item, error) {
	items, err := findAll[directory.Item](ctx, s.col(colItems), bson.M{
		"family":     directory.FamilyOffers,
		"owner.kind": kind,
		"status":     directory.ItemPublished,
	}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(directory.MaxPageLimit))
	if err != nil {
		return nil, mapErr("public offers", err)
	}
	return items, nil
}

func (s *Store) BlogTitle(ctx context.Context, id string) (*directory.BlogTitle, error) {
	var b directory.BlogTitle
	err := s.col(colItems).FindOne(ctx,
		bson.M{"_id": id, "family": directory.FamilyBlogs, "status": directory.ItemPublished},
		options.FindOne().SetProjection(bson.M{"_id": 1, "title": 1}),
	).Decode(&b)
	if err != nil {
		return nil, mapErr("blog title", err)
	}
	return &b, nil
}

func (s *Store) Categories(ctx context.Context, kind directory.Kind) ([]directory.Category, error) {
	filter := bson.M{}
	if kind != "" {
		filter["kind"] = kind
	}
	cats, err := findAll[directory.Category](ctx, s.col(colCategories), filter,
		options.Find().SetSort(bson.D{{Key: "name_en", Value: 1}}))
	if err != nil {
		return nil, mapErr("categories", err)
	}
	return cats, nil
}

func (s *Store) UserByAnyID(ctx context.Context, id string) (*directory.User, error) {
	var u directory.User
	err := s.col(colUsers).FindOne(ctx, bson.M{"$or": bson.A{
		bson.M{"_id": id},
		bson.M{"external_id": id},
	}}).Decode(&u)
	if err != nil {
		return nil, mapErr("user", err)
	}
	return &u, nil
}

func (s *Store) UpsertUser(ctx context.Context, u directory.User) (*directory.User, error) {
	if u.ExternalID == "" {
		return nil, directory.ErrInvalidInput
	}
	now := s.now()
	var out directory.User
	err := s.col(colUsers).FindOneAndUpdate(ctx,
		bson.M{"external_id": u.ExternalID},
		bson.M{
			"$set": bson.M{
				"email":      u.Email,
				"name":       u.Name,
				"avatar":     u.AvatarURL,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{
				"_id":        newID(),
				"created_at": now,
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return nil, mapErr("upsert user", err)
	}
	return &out, nil
}

type bookmarkDoc struct {
	Principal string         `bson:"principal"`
	Kind      directory.Kind `bson:"kind"`
	ID        string         `bson:"id"`
	CreatedAt time.Time      `bson:"created_at"`
}

func (s *Store) Bookmarks(ctx context.Context, principal string) ([]string, error) {
	docs, err := findAll[bookmarkDoc](ctx, s.col(colBookmarks), bson.M{"principal": principal},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, mapErr("bookmarks", err)
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func (s *Store) ToggleBookmark(ctx context.Context, principal string, ref directory.TenantRef) (bool, error) {
	filter := bson.M{"principal": principal, "kind": ref.Kind, "id": ref.ID}
	res, err := s.col(colBookmarks).DeleteOne(ctx, filter)
	if err != nil {
		return false, mapErr("toggle bookmark", err)
	}
	if res.DeletedCount > 0 {
		return false, nil
	}
	_, err = s.col(colBookmarks).InsertOne(ctx, bookmarkDoc{
		Principal: principal,
		Kind:      ref.Kind,
		ID:        ref.ID,
		CreatedAt: s.now(),
	})
	if err != nil {
		return false, mapErr("toggle bookmark", err)
	}
	return true, nil
}

func (s *Store) Reviews(ctx context.Context, target directory.TenantRef, page directory.Page) ([]directory.Review, int, error) {
	filter := bson.M{"target.kind": target.Kind, "target.id": target.ID}
	total, err := s.col(colReviews).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, mapErr("count reviews", err)
	}
	reviews, err := findAll[directory.Review](ctx, s.col(colReviews), filter,
		pageOptions(page, bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, 0, mapErr("reviews", err)
	}
	return reviews, int(total), nil
}

func (s *Store) CreateReview(ctx context.Context, r directory.Review) (*directory.Review, error) {
	r.ID = newID()
	r.CreatedAt = s.now()
	if _, err := s.col(colReviews).InsertOne(ctx, r); err != nil {
		return nil, mapErr("create review", err)
	}
	return &r, nil
}

// FindOrCreateConversation upserts on the unique pair key so concurrent
// callers end up with the same document.
func (s *Store) FindOrCreateConversation(ctx context.Context, a, b directory.Participant) (*directory.Conversation, error) {
	var c directory.Conversation
	err := s.col(colConversations).FindOneAndUpdate(ctx,
		bson.M{"key": directory.PairKey(a, b)},
		bson.M{"$setOnInsert": bson.M{
			"_id":          newID(),
			"participants": [2]directory.Participant{a, b},
			"created_at":   s.now(),
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return nil, mapErr("find or create conversation", err)
	}
	return &c, nil
}

func (s *Store) ConversationsFor(ctx context.Context, p directory.Participant) ([]directory.Conversation, error) {
	convs, err := findAll[directory.Conversation](ctx, s.col(colConversations),
		bson.M{"participants": bson.M{"$elemMatch": bson.M{"kind": p.Kind, "id": p.ID}}},
		options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}, {Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, mapErr("conversations", err)
	}
	return convs, nil
}

func (s *Store) ConversationByID(ctx context.Context, id string) (*directory.Conversation, error) {
	var c directory.Conversation
	if err := s.col(colConversations).FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, mapErr("conversation", err)
	}
	return &c, nil
}

// AppendMessage inserts the message before moving the conversation preview,
// so a failed insert never leaves a preview without its message. The
// preview only moves forward in time.
func (s *Store) AppendMessage(ctx context.Context, m directory.Message) (*directory.Message, error) {
	err := s.col(colConversations).FindOne(ctx,
		bson.M{"_id": m.ConversationID},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Err()
	if err != nil {
		return nil, mapErr("append message", err)
	}

	m.ID = newID()
	m.CreatedAt = s.now()
	if _, err := s.col(colMessages).InsertOne(ctx, m); err != nil {
		return nil, mapErr("append message", err)
	}

	_, err = s.col(colConversations).UpdateOne(ctx,
		bson.M{
			"_id": m.ConversationID,
			"$or": bson.A{
				bson.M{"last_message_at": bson.M{"$exists": false}},
				bson.M{"last_message_at": bson.M{"$lte": m.CreatedAt}},
			},
		},
		bson.M{"$set": bson.M{"last_message": m.Text, "last_message_at": m.CreatedAt}},
	)
	if err != nil {
		return nil, mapErr("update conversation preview", err)
	}
	return &m, nil
}

func (s *Store) Messages(ctx context.Context, conversationID string) ([]directory.Message, error) {
	msgs, err := findAll[directory.Message](ctx, s.col(colMessages),
		bson.M{"conversation_id": conversationID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, mapErr("messages", err)
	}
	return msgs, nil
}
