package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/example/perfumery/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
)

type ProductFilter struct {
	Category string
	Tag      string
	Featured *bool
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Sort     string
	Page
}

func (f ProductFilter) query() bson.M {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Tag != "" {
		q["tags"] = f.Tag
	}
	if f.Featured != nil {
		q["featured"] = *f.Featured
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		// a single variant has to satisfy both bounds
		q["variants"] = bson.M{"$elemMatch": bson.M{"price": price}}
	}
	return q
}

// sort orders by the cheapest variant ascending and the most expensive
// variant descending, which is how mongo sorts on array fields.
func (f ProductFilter) sort() bson.D {
	switch f.Sort {
	case SortPriceAsc:
		return bson.D{{Key: "variants.price", Value: 1}, {Key: "_id", Value: 1}}
	case SortPriceDesc:
		return bson.D{{Key: "variants.price", Value: -1}, {Key: "_id", Value: 1}}
	case SortName:
		return bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
}

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{collection: db.Collection(ProductsCollection)}
}

// FindByIDs loads the products with the given ids in a single $in query.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err = cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (r *ProductRepository) List(ctx context.Context, f ProductFilter) (*List[models.Product], error) {
	q := f.query()

	total, err := r.collection.CountDocuments(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	opts := f.Page.apply(options.Find().SetSort(f.sort()))
	cursor, err := r.collection.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err = cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return newList(products, total, f.Page), nil
}

func (r *ProductRepository) Insert(ctx context.Context, p *models.Product) error {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, p)
	return err
}

// Update applies set as a $set patch, stamps updatedAt and returns the
// updated document.
func (r *ProductRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error) {
	set["updatedAt"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&product)
	if err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
