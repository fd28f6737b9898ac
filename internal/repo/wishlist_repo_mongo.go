package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"luxora/internal/domain"
)

// wishlistDoc 每个用户一个文档
type wishlistDoc struct {
	UserID    string    `bson:"_id"`
	Products  []string  `bson:"products"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type MongoWishlistRepo struct{ coll *mongo.Collection }

func NewMongoWishlistRepo(coll *mongo.Collection) *MongoWishlistRepo {
	return &MongoWishlistRepo{coll: coll}
}

var _ domain.WishlistRepository = (*MongoWishlistRepo)(nil)

func (r *MongoWishlistRepo) ensure(ctx context.Context, userID string) error {
	now := time.Now()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$setOnInsert": bson.M{"products": bson.A{}, "createdAt": now, "updatedAt": now}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *MongoWishlistRepo) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	if err := r.ensure(ctx, userID); err != nil {
		return false, err
	}
	now := time.Now()
	// 不在列表里才追加；匹配失败说明已存在，转为移除
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID, "products": bson.M{"$ne": productID}},
		bson.M{"$push": bson.M{"products": productID}, "$set": bson.M{"updatedAt": now}},
	)
	if err != nil {
		return false, err
	}
	if res.ModifiedCount == 1 {
		return true, nil
	}
	_, err = r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"products": productID}, "$set": bson.M{"updatedAt": now}},
	)
	return false, err
}

func (r *MongoWishlistRepo) Remove(ctx context.Context, userID, productID string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"products": productID}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	return err
}

func (r *MongoWishlistRepo) ProductIDs(ctx context.Context, userID string) ([]string, error) {
	var doc wishlistDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Products == nil {
		doc.Products = []string{}
	}
	return doc.Products, nil
}
