package registry

// ObjectType is the closed set of business-record kinds a report can target.
type ObjectType string

const (
	ObjectLeads      ObjectType = "leads"
	ObjectContacts   ObjectType = "contacts"
	ObjectAccounts   ObjectType = "accounts"
	ObjectDeals      ObjectType = "deals"
	ObjectActivities ObjectType = "activities"
	ObjectCampaigns  ObjectType = "campaigns"
	ObjectUsers      ObjectType = "users"
)

type FieldType string

const (
	FieldTypeString   FieldType = "string"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeDateTime FieldType = "datetime"
	FieldTypeBoolean  FieldType = "boolean"
)

type FieldDef struct {
	Name  string    `json:"name"`
	Label string    `json:"label"`
	Type  FieldType `json:"type"`
}

// Registry maps each object type to its store entity and field catalog.
// Adding an object type is a data change here, not a code change elsewhere.
type Registry struct {
	entities map[ObjectType]string
	fields   map[ObjectType][]FieldDef
}

func New() *Registry {
	return &Registry{
		entities: map[ObjectType]string{
			ObjectLeads:      "leads",
			ObjectContacts:   "contacts",
			ObjectAccounts:   "accounts",
			ObjectDeals:      "deals",
			ObjectActivities: "activities",
			ObjectCampaigns:  "campaigns",
			ObjectUsers:      "users",
		},
		fields: map[ObjectType][]FieldDef{
			ObjectLeads: {
				{Name: "first_name", Label: "First Name", Type: FieldTypeString},
				{Name: "last_name", Label: "Last Name", Type: FieldTypeString},
				{Name: "email", Label: "Email", Type: FieldTypeString},
				{Name: "phone", Label: "Phone", Type: FieldTypeString},
				{Name: "company", Label: "Company", Type: FieldTypeString},
				{Name: "status", Label: "Status", Type: FieldTypeString},
				{Name: "source", Label: "Source", Type: FieldTypeString},
				{Name: "created_at", Label: "Created At", Type: FieldTypeDateTime},
			},
			ObjectContacts: {
				{Name: "first_name", Label: "First Name", Type: FieldTypeString},
				{Name: "last_name", Label: "Last Name", Type: FieldTypeString},
				{Name: "email", Label: "Email", Type: FieldTypeString},
				{Name: "phone", Label: "Phone", Type: FieldTypeString},
				{Name: "title", Label: "Title", Type: FieldTypeString},
				{Name: "account_id", Label: "Account", Type: FieldTypeString},
				{Name: "created_at", Label: "Created At", Type: FieldTypeDateTime},
			},
			ObjectAccounts: {
				{Name: "name", Label: "Name", Type: FieldTypeString},
				{Name: "industry", Label: "Industry", Type: FieldTypeString},
				{Name: "website", Label: "Website", Type: FieldTypeString},
				{Name: "phone", Label: "Phone", Type: FieldTypeString},
				{Name: "annual_revenue", Label: "Annual Revenue", Type: FieldTypeNumber},
				{Name: "created_at", Label: "Created At", Type: FieldTypeDateTime},
			},
			ObjectDeals: {
				{Name: "name", Label: "Name", Type: FieldTypeString},
				{Name: "value", Label: "Value", Type: FieldTypeNumber},
				{Name: "stage_id", Label: "Stage", Type: FieldTypeString},
				{Name: "owner_id", Label: "Owner", Type: FieldTypeString},
				{Name: "won", Label: "Won", Type: FieldTypeBoolean},
				{Name: "expected_close_date", Label: "Expected Close Date", Type: FieldTypeDate},
				{Name: "closed_at", Label: "Closed At", Type: FieldTypeDateTime},
				{Name: "created_at", Label: "Created At", Type: FieldTypeDateTime},
			},
			ObjectActivities: {
				{Name: "subject", Label: "Subject", Type: FieldTypeString},
				{Name: "activity_type", Label: "Type", Type: FieldTypeString},
				{Name: "user_id", Label: "User", Type: FieldTypeString},
				{Name: "due_date", Label: "Due Date", Type: FieldTypeDate},
				{Name: "completed", Label: "Completed", Type: FieldTypeBoolean},
				{Name: "created_at", Label: "Created At", Type: FieldTypeDateTime},
			},
			ObjectCampaigns: {
				{Name: "name", Label: "Name", Type: FieldTypeString},
				{Name: "channel", Label: "Channel", Type: FieldTypeString},
				{Name: "budget", Label: "Budget", Type: FieldTypeNumber},
				{Name: "start_date", Label: "Start Date", Type: FieldTypeDate},
				{Name: "end_date", Label: "End Date", Type: FieldTypeDate},
				{Name: "active", Label: "Active", Type: FieldTypeBoolean},
				{Name: "created_at", Label: "Created At", Type: FieldTypeDateTime},
			},
			ObjectUsers: {
				{Name: "first_name", Label: "First Name", Type: FieldTypeString},
				{Name: "last_name", Label: "Last Name", Type: FieldTypeString},
				{Name: "email", Label: "Email", Type: FieldTypeString},
				{Name: "role", Label: "Role", Type: FieldTypeString},
				{Name: "team_id", Label: "Team", Type: FieldTypeString},
				{Name: "created_at", Label: "Created At", Type: FieldTypeDateTime},
			},
		},
	}
}

// Fields returns the field catalog for an object type. Unrecognized types
// yield an empty slice, not an error.
func (r *Registry) Fields(t ObjectType) []FieldDef {
	defs, ok := r.fields[t]
	if !ok {
		return []FieldDef{}
	}
	out := make([]FieldDef, len(defs))
	copy(out, defs)
	return out
}

// EntityFor resolves an object type to its store entity name.
func (r *Registry) EntityFor(t ObjectType) (string, bool) {
	entity, ok := r.entities[t]
	return entity, ok
}

// Known reports whether the object type is part of the closed enum.
func (r *Registry) Known(t ObjectType) bool {
	_, ok := r.entities[t]
	return ok
}
