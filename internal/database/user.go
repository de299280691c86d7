package database

import (
	"context"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"pricewatch/internal/model"
	"time"
)

func (db Database) UserInsert(ctx context.Context, u model.User) (id string, err error) {
	u.Wishlist = []model.WishlistItem{}
	u.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	u.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	r, err := db.Collection(CollectionUsers).InsertOne(ctx, u)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting User with email: %s", u.Email)
	}
	return r.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (db Database) UserFindByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := db.Collection(CollectionUsers).FindOne(ctx, bson.M{"email": email}).Decode(&u)
	return u, errors.Wrapf(err, "error finding User with email: %s", email)
}

func (db Database) UserFindByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return u, errors.Wrapf(err, "error creating ObjectID from hex: %s", id)
	}
	err = db.Collection(CollectionUsers).FindOne(ctx, bson.M{"_id": objID}).Decode(&u)
	return u, errors.Wrapf(err, "error finding User with ID: %s", id)
}

// UsersFindWithWishlist returns every User with at least one wishlist item.
func (db Database) UsersFindWithWishlist(ctx context.Context) ([]model.User, error) {
	var us []model.User
	cur, err := db.Collection(CollectionUsers).Find(ctx, bson.M{"wishlist.0": bson.M{"$exists": true}})
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find Users with wishlist items")
	}
	if err = cur.All(ctx, &us); err != nil {
		return nil, errors.Wrap(err, "error getting Users with wishlist items from cursor")
	}
	return us, nil
}

func (db Database) UserWishlistItemAdd(ctx context.Context, userID string, wi model.WishlistItem) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return errors.Wrapf(err, "error creating ObjectID from hex: %s", userID)
	}

	res, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": objID},
		bson.M{
			"$push": bson.M{"wishlist": wi},
			"$set":  bson.M{"updated_at": primitive.NewDateTimeFromTime(time.Now())},
		},
	)
	if err != nil {
		return errors.Wrapf(err, "error adding WishlistItem to User with ID: %s", userID)
	}
	if res.ModifiedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "when adding WishlistItem to User with ID: %s", userID)
	}
	return nil
}

func (db Database) UserWishlistItemRemove(ctx context.Context, userID string, itemID primitive.ObjectID) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return errors.Wrapf(err, "error creating ObjectID from hex: %s", userID)
	}

	res, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": objID},
		bson.M{
			"$pull": bson.M{"wishlist": bson.M{"item_id": itemID}},
			"$set":  bson.M{"updated_at": primitive.NewDateTimeFromTime(time.Now())},
		},
	)
	if err != nil {
		return errors.Wrapf(err, "error removing WishlistItem from User with ID: %s, ItemID: %s", userID, itemID.Hex())
	}
	if res.ModifiedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "when removing WishlistItem from User with ID: %s, ItemID: %s", userID, itemID.Hex())
	}
	return nil
}

// UserWishlistItemPriceUpdate moves the current price to previous_price, sets
// the newly observed price, and stamps last_checked_at.
func (db Database) UserWishlistItemPriceUpdate(
	ctx context.Context, userID primitive.ObjectID, itemID primitive.ObjectID, newPrice float64, oldPrice float64,
) error {
	res, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": userID, "wishlist.item_id": itemID},
		bson.M{"$set": bson.M{
			"wishlist.$.extracted_price": newPrice,
			"wishlist.$.previous_price":  oldPrice,
			"wishlist.$.last_checked_at": primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating WishlistItem price, UserID: %s, ItemID: %s, new price: %v",
			userID.Hex(), itemID.Hex(), newPrice)
	}
	if res.ModifiedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "when updating WishlistItem price, UserID: %s, ItemID: %s",
			userID.Hex(), itemID.Hex())
	}
	return nil
}
