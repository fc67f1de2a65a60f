package mysql

const upsertRestaurantSQL = `
INSERT INTO restaurants
  (id, name, address, lat, lng, average_rating, total_ratings)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name           = VALUES(name),
  address        = VALUES(address),
  lat            = VALUES(lat),
  lng            = VALUES(lng),
  average_rating = VALUES(average_rating),
  total_ratings  = VALUES(total_ratings),
  updated_at     = CURRENT_TIMESTAMP
`

// Note: `comment` is a keyword in some dialects; keep it quoted everywhere.
const insertReviewsPrefix = "INSERT INTO restaurant_reviews\n  (restaurant_id, position, reviewer, stars, `comment`)\nVALUES "

const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  reviewer  = VALUES(reviewer),\n" +
	"  stars     = VALUES(stars),\n" +
	"  `comment` = VALUES(`comment`)\n"

const insertPhotosPrefix = "INSERT INTO restaurant_photos\n  (restaurant_id, position, photo_reference, height, width)\nVALUES "

const insertPhotosOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  photo_reference = VALUES(photo_reference),\n" +
	"  height          = VALUES(height),\n" +
	"  width           = VALUES(width)\n"

// Rows past the new length are left over from a longer earlier seed.
const pruneReviewsSQL = "DELETE FROM restaurant_reviews WHERE restaurant_id = ? AND position >= ?"

const prunePhotosSQL = "DELETE FROM restaurant_photos WHERE restaurant_id = ? AND position >= ?"

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const listRestaurantsSQL = `
SELECT id, name, address, lat, lng, average_rating, total_ratings
FROM restaurants
ORDER BY created_at, id
`

const listReviewsSQL = "SELECT restaurant_id, reviewer, stars, `comment`\n" +
	"FROM restaurant_reviews\n" +
	"ORDER BY restaurant_id, position\n"

const listPhotosSQL = `
SELECT restaurant_id, photo_reference, height, width
FROM restaurant_photos
ORDER BY restaurant_id, position
`
