package mysql

const upsertHotelSQL = `
INSERT INTO hotels
  (id, name, location, city, country, type, price, rating, amenities, images, description, lat, lng, raw)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name        = VALUES(name),
  location    = VALUES(location),
  city        = VALUES(city),
  country     = VALUES(country),
  type        = VALUES(type),
  price       = VALUES(price),
  rating      = VALUES(rating),
  amenities   = VALUES(amenities),
  images      = VALUES(images),
  description = VALUES(description),
  lat         = VALUES(lat),
  lng         = VALUES(lng),
  raw         = VALUES(raw),
  updated_at  = CURRENT_TIMESTAMP
`

// hotelColumns is shared by every read so scanHotel stays in sync.
var hotelColumns = []string{
	"id", "name", "location", "city", "country", "type",
	"price", "rating", "amenities", "images", "description", "lat", "lng",
}
