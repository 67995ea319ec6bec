package models

// Customer maps the pre-existing customer table. Column names follow the
// legacy schema; the JSON names are the ones clients use.
type Customer struct {
	Id      int64  `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	Name    string `json:"name" gorm:"column:nombre;size:255" validate:"max=255"`
	Phone   string `json:"phone" gorm:"column:telefono;size:255" validate:"max=255"`
	Email   string `json:"email" gorm:"column:email;size:255;index" validate:"max=255"`
	Address string `json:"address" gorm:"column:direccion;size:255" validate:"max=255"`
}

func (Customer) TableName() string {
	return "customer"
}

// Overlay copies the mutable fields of in onto c. The id is left untouched.
func (c *Customer) Overlay(in Customer) {
	c.Name = in.Name
	c.Phone = in.Phone
	c.Email = in.Email
	c.Address = in.Address
}
