// Package mongostore implements the repositories on MongoDB. Documents are
// addressed by their application "id" field; the driver's _id is never
// exposed.
//
// Cart mutations are single-document atomic updates ($inc, $push, $pull,
// positional $set). Order placement runs in a transaction when the
// deployment supports one; otherwise the order is written first and the cart
// cleared second, and the clear is idempotent.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/atelier/storefront/app/models"
	"github.com/atelier/storefront/app/repositories"
	"github.com/atelier/storefront/pkg/metrics"
)

const (
	usersCollection    = "users"
	productsCollection = "products"
	cartsCollection    = "carts"
	ordersCollection   = "orders"
)

var noID = bson.M{"_id": 0}

// Options tunes the store.
type Options struct {
	// Transactions wraps order placement in a multi-document transaction.
	// Requires a replica set or sharded cluster.
	Transactions bool
}

// New builds the store on database dbName. The caller should run
// EnsureIndexes once at boot.
func New(client *mongo.Client, dbName string, opts Options) *repositories.Store {
	db := client.Database(dbName)
	carts := &cartRepo{col: db.Collection(cartsCollection)}
	return repositories.NewStore(
		&userRepo{col: db.Collection(usersCollection)},
		&productRepo{col: db.Collection(productsCollection)},
		carts,
		&orderRepo{client: client, col: db.Collection(ordersCollection), carts: carts, tx: opts.Transactions},
		client.Disconnect,
	)
}

// EnsureIndexes creates the unique and lookup indexes. It is idempotent.
func EnsureIndexes(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	unique := func(name string) *options.IndexOptions {
		return options.Index().SetUnique(true).SetName(name)
	}

	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique("id_unique")},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique("email_unique")},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique("username_unique")},
		},
		productsCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique("id_unique")},
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "featured", Value: 1}}},
			{Keys: bson.D{{Key: "price", Value: 1}}},
		},
		cartsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique("user_id_unique")},
		},
		ordersCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique("id_unique")},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}

	for col, models := range specs {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongostore: indexes on %s: %w", col, err)
		}
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repositories.ErrNotFound
	}
	return err
}

type userRepo struct{ col *mongo.Collection }

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	defer metrics.ObserveStoreOp(usersCollection, "create", time.Now())

	_, err := r.col.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return &repositories.DuplicateError{Field: duplicateField(err)}
	}
	return err
}

// duplicateField reads which unique index an E11000 error names.
func duplicateField(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "username"):
		return "username"
	case strings.Contains(msg, "email"):
		return "email"
	default:
		return "id"
	}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *userRepo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter, options.FindOne().SetProjection(noID)).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

type productRepo struct{ col *mongo.Collection }

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	defer metrics.ObserveStoreOp(productsCollection, "create", time.Now())
	_, err := r.col.InsertOne(ctx, p)
	return err
}

func (r *productRepo) CreateMany(ctx context.Context, ps []models.Product) error {
	if len(ps) == 0 {
		return nil
	}
	docs := make([]interface{}, len(ps))
	for i := range ps {
		docs[i] = ps[i]
	}
	_, err := r.col.InsertMany(ctx, docs)
	return err
}

func (r *productRepo) Get(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := r.col.FindOne(ctx, bson.M{"id": id}, options.FindOne().SetProjection(noID)).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *productRepo) GetMany(ctx context.Context, ids []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := r.col.Find(ctx, bson.M{"id": bson.M{"$in": ids}}, options.Find().SetProjection(noID))
	if err != nil {
		return nil, err
	}
	var ps []models.Product
	if err := cur.All(ctx, &ps); err != nil {
		return nil, err
	}
	for _, p := range ps {
		out[p.ID] = p
	}
	return out, nil
}

func (r *productRepo) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	defer metrics.ObserveStoreOp(productsCollection, "list", time.Now())

	opts := options.Find().
		SetProjection(noID).
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "id", Value: 1}}).
		SetLimit(int64(repositories.ClampLimit(f.Limit)))

	cur, err := r.col.Find(ctx, productQuery(f), opts)
	if err != nil {
		return nil, err
	}
	ps := []models.Product{}
	if err := cur.All(ctx, &ps); err != nil {
		return nil, err
	}
	return ps, nil
}

// productQuery builds the filter document. The search term is quoted so it
// matches literally.
func productQuery(f models.ProductFilter) bson.M {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Featured != nil {
		q["featured"] = *f.Featured
	}
	if f.Search != "" {
		q["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		q["price"] = price
	}
	return q
}

func (r *productRepo) Categories(ctx context.Context) ([]string, error) {
	raw, err := r.col.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, err
	}
	cats := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			cats = append(cats, s)
		}
	}
	sort.Strings(cats)
	return cats, nil
}

func (r *productRepo) Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	defer metrics.ObserveStoreOp(productsCollection, "update", time.Now())

	set := patchSet(patch)
	if len(set) == 0 {
		return r.Get(ctx, id)
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(noID)

	var p models.Product
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": set}, opts).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// patchSet converts the non-nil patch fields into a $set document.
func patchSet(p models.ProductPatch) bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Price != nil {
		set["price"] = *p.Price
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Sizes != nil {
		set["sizes"] = *p.Sizes
	}
	if p.Colors != nil {
		set["colors"] = *p.Colors
	}
	if p.ImageURL != nil {
		set["image_url"] = *p.ImageURL
	}
	if p.Stock != nil {
		set["stock"] = *p.Stock
	}
	if p.Featured != nil {
		set["featured"] = *p.Featured
	}
	return set
}

func (r *productRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *productRepo) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

type cartRepo struct{ col *mongo.Collection }

func (r *cartRepo) Ensure(ctx context.Context, userID string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$setOnInsert": bson.M{
			"user_id":    userID,
			"items":      bson.A{},
			"updated_at": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	// Two concurrent upserts can race on the unique index; the loser's cart
	// exists all the same.
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (r *cartRepo) Get(ctx context.Context, userID string) (*models.Cart, error) {
	defer metrics.ObserveStoreOp(cartsCollection, "get", time.Now())

	if err := r.Ensure(ctx, userID); err != nil {
		return nil, err
	}
	var c models.Cart
	if err := r.col.FindOne(ctx, bson.M{"user_id": userID}, options.FindOne().SetProjection(noID)).Decode(&c); err != nil {
		return nil, notFound(err)
	}
	if c.Items == nil {
		c.Items = []models.CartLine{}
	}
	return &c, nil
}

func variantMatch(line models.CartLine) bson.M {
	return bson.M{"product_id": line.ProductID, "size": line.Size, "color": line.Color}
}

// MergeLine increments a matching line, or pushes a new one guarded by
// "no matching line yet". A miss on both means a concurrent request pushed
// the same variant in between, so the increment is retried once.
func (r *cartRepo) MergeLine(ctx context.Context, userID string, line models.CartLine) error {
	defer metrics.ObserveStoreOp(cartsCollection, "merge_line", time.Now())

	if err := r.Ensure(ctx, userID); err != nil {
		return err
	}

	inc := func() (bool, error) {
		res, err := r.col.UpdateOne(ctx,
			bson.M{"user_id": userID, "items": bson.M{"$elemMatch": variantMatch(line)}},
			bson.M{
				"$inc": bson.M{"items.$.quantity": line.Quantity},
				"$set": bson.M{"updated_at": time.Now().UTC()},
			},
		)
		if err != nil {
			return false, err
		}
		return res.MatchedCount > 0, nil
	}

	if ok, err := inc(); err != nil || ok {
		return err
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"user_id": userID, "items": bson.M{"$not": bson.M{"$elemMatch": variantMatch(line)}}},
		bson.M{
			"$push": bson.M{"items": line},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	ok, err := inc()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("mongostore: cart %s changed during merge", userID)
	}
	return nil
}

func (r *cartRepo) SetQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"user_id": userID, "items.id": lineID},
		bson.M{"$set": bson.M{"items.$.quantity": quantity, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *cartRepo) PullLine(ctx context.Context, userID, lineID string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"id": lineID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	return err
}

func (r *cartRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"items": bson.A{}, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

type orderRepo struct {
	client *mongo.Client
	col    *mongo.Collection
	carts  *cartRepo
	tx     bool
}

func (r *orderRepo) Place(ctx context.Context, o *models.Order) error {
	defer metrics.ObserveStoreOp(ordersCollection, "place", time.Now())

	if !r.tx {
		if _, err := r.col.InsertOne(ctx, o); err != nil {
			return fmt.Errorf("mongostore: insert order: %w", err)
		}
		return r.carts.Clear(ctx, o.UserID)
	}

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongostore: start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.col.InsertOne(sc, o); err != nil {
			return nil, err
		}
		return nil, r.carts.Clear(sc, o.UserID)
	})
	if err != nil {
		return fmt.Errorf("mongostore: place order: %w", err)
	}
	return nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Order, error) {
	return r.find(ctx, bson.M{"user_id": userID}, limit)
}

func (r *orderRepo) List(ctx context.Context, limit int) ([]models.Order, error) {
	return r.find(ctx, bson.M{}, limit)
}

func (r *orderRepo) find(ctx context.Context, filter bson.M, limit int) ([]models.Order, error) {
	defer metrics.ObserveStoreOp(ordersCollection, "list", time.Now())

	opts := options.Find().
		SetProjection(noID).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "id", Value: -1}}).
		SetLimit(int64(repositories.ClampLimit(limit)))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepo) GetForUser(ctx context.Context, userID, id string) (*models.Order, error) {
	return r.findOne(ctx, bson.M{"id": id, "user_id": userID})
}

func (r *orderRepo) Get(ctx context.Context, id string) (*models.Order, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *orderRepo) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var o models.Order
	if err := r.col.FindOne(ctx, filter, options.FindOne().SetProjection(noID)).Decode(&o); err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
