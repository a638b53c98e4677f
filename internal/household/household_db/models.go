package household_db

type PantryItem struct {
	UserID    string
	Name      string
	NameKey   string
	CreatedAt int64
}

type FamilyMember struct {
	ID                 int64
	UserID             string
	Name               string
	DietaryPreferences string
	CreatedAt          int64
}
