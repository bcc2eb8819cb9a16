package customer

import (
	"context"
	"errors"
	"io"
	"log"
	"regexp"
	"time"

	"customerhub/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// CollectionName is the MongoDB collection holding customer documents.
const CollectionName = "customers"

type addressDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Street    string             `bson:"street"`
	City      string             `bson:"city"`
	State     string             `bson:"state"`
	ZipCode   string             `bson:"zipCode"`
	Country   string             `bson:"country"`
	IsPrimary bool               `bson:"isPrimary"`
}

type customerDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	FirstName string             `bson:"firstName"`
	LastName  string             `bson:"lastName"`
	Email     string             `bson:"email"`
	Phone     string             `bson:"phone"`
	Addresses []addressDoc       `bson:"addresses"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type mongoRepo struct {
	coll   *mongo.Collection
	logger *log.Logger
	now    func() time.Time
}

// NewMongo returns a Repository backed by a MongoDB collection.
func NewMongo(db *mongo.Database, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &mongoRepo{
		coll:   db.Collection(CollectionName),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureMongoIndexes creates the unique email index the repository relies on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	return err
}

func (r *mongoRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	now := r.now()
	doc := customerDoc{
		ID:        primitive.NewObjectID(),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Addresses: make([]addressDoc, 0, len(c.Addresses)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, a := range c.Addresses {
		doc.Addresses = append(doc.Addresses, newAddressDoc(a))
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, r.translate("create", err)
	}
	r.logger.Printf("customer repo: created id=%s", doc.ID.Hex())
	out := doc.toDomain()
	return &out, nil
}

func (r *mongoRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, "get", bson.M{"_id": oid})
}

func (r *mongoRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.findOne(ctx, "get by email", bson.M{"email": email})
}

func (r *mongoRepo) List(ctx context.Context, q ListQuery) ([]domain.Customer, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(q.Skip).
		SetLimit(q.Limit)
	cur, err := r.coll.Find(ctx, searchDocument(q.Search), opts)
	if err != nil {
		return nil, r.translate("list", err)
	}
	defer cur.Close(ctx)

	result := make([]domain.Customer, 0, q.Limit)
	for cur.Next(ctx) {
		var doc customerDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, r.translate("list decode", err)
		}
		result = append(result, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, r.translate("list cursor", err)
	}
	return result, nil
}

func (r *mongoRepo) Count(ctx context.Context, search string) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, searchDocument(search))
	if err != nil {
		return 0, r.translate("count", err)
	}
	return n, nil
}

func (r *mongoRepo) Update(ctx context.Context, id string, f domain.CustomerFields) (*domain.Customer, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	update := bson.M{"$set": bson.M{
		"firstName": f.FirstName,
		"lastName":  f.LastName,
		"email":     f.Email,
		"phone":     f.Phone,
		"updatedAt": r.now(),
	}}
	return r.findOneAndUpdate(ctx, "update", bson.M{"_id": oid}, update)
}

func (r *mongoRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return r.translate("delete", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("customer repo: deleted id=%s", id)
	return nil
}

func (r *mongoRepo) PushAddress(ctx context.Context, customerID string, a domain.Address) (*domain.Customer, error) {
	oid, err := primitive.ObjectIDFromHex(customerID)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	doc := newAddressDoc(a)
	update := bson.M{
		"$push": bson.M{"addresses": doc},
		"$set":  bson.M{"updatedAt": r.now()},
	}
	c, err := r.findOneAndUpdate(ctx, "push address", bson.M{"_id": oid}, update)
	if err != nil {
		return nil, err
	}
	r.logger.Printf("customer repo: added address id=%s customer_id=%s", doc.ID.Hex(), customerID)
	return c, nil
}

func (r *mongoRepo) PatchAddress(ctx context.Context, customerID, addressID string, p domain.AddressPatch) (*domain.Customer, error) {
	oid, aid, err := r.addressIDs(ctx, customerID, addressID)
	if err != nil {
		return nil, err
	}
	set := bson.M{"updatedAt": r.now()}
	if p.Street != nil {
		set["addresses.$.street"] = *p.Street
	}
	if p.City != nil {
		set["addresses.$.city"] = *p.City
	}
	if p.State != nil {
		set["addresses.$.state"] = *p.State
	}
	if p.ZipCode != nil {
		set["addresses.$.zipCode"] = *p.ZipCode
	}
	if p.Country != nil {
		set["addresses.$.country"] = *p.Country
	}
	if p.IsPrimary != nil {
		set["addresses.$.isPrimary"] = *p.IsPrimary
	}
	filter := bson.M{"_id": oid, "addresses._id": aid}
	c, err := r.findOneAndUpdate(ctx, "patch address", filter, bson.M{"$set": set})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, r.addressMiss(ctx, oid)
	}
	return c, err
}

func (r *mongoRepo) PullAddress(ctx context.Context, customerID, addressID string) (*domain.Customer, error) {
	oid, aid, err := r.addressIDs(ctx, customerID, addressID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": oid, "addresses._id": aid}
	update := bson.M{
		"$pull": bson.M{"addresses": bson.M{"_id": aid}},
		"$set":  bson.M{"updatedAt": r.now()},
	}
	c, err := r.findOneAndUpdate(ctx, "pull address", filter, update)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, r.addressMiss(ctx, oid)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Printf("customer repo: removed address id=%s customer_id=%s", addressID, customerID)
	return c, nil
}

func (r *mongoRepo) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}

func (r *mongoRepo) addressIDs(ctx context.Context, customerID, addressID string) (primitive.ObjectID, primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(customerID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, domain.ErrNotFound
	}
	aid, err := primitive.ObjectIDFromHex(addressID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, r.addressMiss(ctx, oid)
	}
	return oid, aid, nil
}

func (r *mongoRepo) addressMiss(ctx context.Context, oid primitive.ObjectID) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return r.translate("address lookup", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrAddressNotFound
}

func (r *mongoRepo) findOne(ctx context.Context, op string, filter bson.M) (*domain.Customer, error) {
	var doc customerDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, r.translate(op, err)
	}
	out := doc.toDomain()
	return &out, nil
}

func (r *mongoRepo) findOneAndUpdate(ctx context.Context, op string, filter, update bson.M) (*domain.Customer, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc customerDoc
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, r.translate(op, err)
	}
	out := doc.toDomain()
	return &out, nil
}

func (r *mongoRepo) translate(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrAlreadyExists
	}
	r.logger.Printf("customer repo: %s error=%v", op, err)
	return err
}

func searchDocument(search string) bson.M {
	if search == "" {
		return bson.M{}
	}
	re := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"firstName": re},
		bson.M{"lastName": re},
		bson.M{"email": re},
	}}
}

func newAddressDoc(a domain.Address) addressDoc {
	return addressDoc{
		ID:        primitive.NewObjectID(),
		Street:    a.Street,
		City:      a.City,
		State:     a.State,
		ZipCode:   a.ZipCode,
		Country:   a.Country,
		IsPrimary: a.IsPrimary,
	}
}

func (d customerDoc) toDomain() domain.Customer {
	c := domain.Customer{
		ID:        d.ID.Hex(),
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		Phone:     d.Phone,
		Addresses: make([]domain.Address, 0, len(d.Addresses)),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, a := range d.Addresses {
		c.Addresses = append(c.Addresses, domain.Address{
			ID:        a.ID.Hex(),
			Street:    a.Street,
			City:      a.City,
			State:     a.State,
			ZipCode:   a.ZipCode,
			Country:   a.Country,
			IsPrimary: a.IsPrimary,
		})
	}
	return c
}
