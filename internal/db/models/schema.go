package models

// Table names of the campaign database.
const (
	TableAlertSubscriptions  = "alert_subscriptions"
	TableCampaignTypes       = "campaign_types"
	TableCampaigns           = "campaigns"
	TableCompanies           = "companies"
	TableCompanyDepartments  = "company_departments"
	TableCredentials         = "credentials"
	TableDeaddropConnections = "deaddrop_connections"
	TableDeaddropDeployments = "deaddrop_deployments"
	TableIndustries          = "industries"
	TableLandingPages        = "landing_pages"
	TableMessages            = "messages"
	TableUsers               = "users"
	TableVisits              = "visits"
)

func hasMany(name, target, foreignColumn string) Relationship {
	return Relationship{Name: name, Target: target, TargetColumn: foreignColumn, LocalColumn: "id", Uselist: true}
}

func belongsTo(name, target, localColumn string) Relationship {
	return Relationship{Name: name, Target: target, TargetColumn: "id", LocalColumn: localColumn}
}

var registry = newRegistry(
	newDescriptor("AlertSubscription", TableAlertSubscriptions,
		[]Column{
			{"id", KindString},
			{"campaign_id", KindString},
			{"user_id", KindString},
			{"type", KindString},
			{"expiration", KindTime},
		},
		[]Relationship{
			belongsTo("campaign", TableCampaigns, "campaign_id"),
			belongsTo("user", TableUsers, "user_id"),
		},
	),
	newDescriptor("Campaign", TableCampaigns,
		[]Column{
			{"id", KindString},
			{"name", KindString},
			{"description", KindString},
			{"user_id", KindString},
			{"created", KindTime},
			{"reject_after_credentials", KindBool},
			{"max_credentials", KindInt},
			{"expiration", KindTime},
			{"campaign_type_id", KindString},
			{"company_id", KindString},
		},
		[]Relationship{
			hasMany("alert_subscriptions", TableAlertSubscriptions, "campaign_id"),
			hasMany("credentials", TableCredentials, "campaign_id"),
			hasMany("deaddrop_connections", TableDeaddropConnections, "campaign_id"),
			hasMany("deaddrop_deployments", TableDeaddropDeployments, "campaign_id"),
			hasMany("landing_pages", TableLandingPages, "campaign_id"),
			hasMany("messages", TableMessages, "campaign_id"),
			hasMany("visits", TableVisits, "campaign_id"),
			belongsTo("campaign_type", TableCampaignTypes, "campaign_type_id"),
			belongsTo("company", TableCompanies, "company_id"),
			belongsTo("user", TableUsers, "user_id"),
		},
	),
	newDescriptor("CampaignType", TableCampaignTypes,
		[]Column{
			{"id", KindString},
			{"name", KindString},
			{"description", KindString},
		},
		[]Relationship{
			hasMany("campaigns", TableCampaigns, "campaign_type_id"),
		},
	),
	newDescriptor("Company", TableCompanies,
		[]Column{
			{"id", KindString},
			{"name", KindString},
			{"description", KindString},
			{"industry_id", KindString},
			{"url_main", KindString},
			{"url_email", KindString},
			{"url_remote_access", KindString},
		},
		[]Relationship{
			hasMany("campaigns", TableCampaigns, "company_id"),
			belongsTo("industry", TableIndustries, "industry_id"),
		},
	),
	newDescriptor("CompanyDepartment", TableCompanyDepartments,
		[]Column{
			{"id", KindString},
			{"name", KindString},
			{"description", KindString},
		},
		[]Relationship{
			hasMany("messages", TableMessages, "company_department_id"),
		},
	),
	newDescriptor("Credential", TableCredentials,
		[]Column{
			{"id", KindString},
			{"visit_id", KindString},
			{"message_id", KindString},
			{"campaign_id", KindString},
			{"username", KindString},
			{"password", KindString},
			{"mfa_token", KindString},
			{"regex_validated", KindBool},
			{"submitted", KindTime},
		},
		[]Relationship{
			belongsTo("campaign", TableCampaigns, "campaign_id"),
			belongsTo("message", TableMessages, "message_id"),
			belongsTo("visit", TableVisits, "visit_id"),
		},
	),
	newDescriptor("DeaddropConnection", TableDeaddropConnections,
		[]Column{
			{"id", KindString},
			{"deployment_id", KindString},
			{"campaign_id", KindString},
			{"visit_count", KindInt},
			{"ip", KindString},
			{"local_username", KindString},
			{"local_hostname", KindString},
			{"local_ip_addresses", KindString},
			{"first_seen", KindTime},
			{"last_seen", KindTime},
		},
		[]Relationship{
			belongsTo("campaign", TableCampaigns, "campaign_id"),
			belongsTo("deaddrop_deployment", TableDeaddropDeployments, "deployment_id"),
		},
	),
	newDescriptor("DeaddropDeployment", TableDeaddropDeployments,
		[]Column{
			{"id", KindString},
			{"campaign_id", KindString},
			{"destination", KindString},
		},
		[]Relationship{
			hasMany("deaddrop_connections", TableDeaddropConnections, "deployment_id"),
			belongsTo("campaign", TableCampaigns, "campaign_id"),
		},
	),
	newDescriptor("Industry", TableIndustries,
		[]Column{
			{"id", KindString},
			{"name", KindString},
		},
		[]Relationship{
			hasMany("companies", TableCompanies, "industry_id"),
		},
	),
	newDescriptor("LandingPage", TableLandingPages,
		[]Column{
			{"id", KindString},
			{"campaign_id", KindString},
			{"hostname", KindString},
			{"page", KindString},
		},
		[]Relationship{
			hasMany("first_visits", TableVisits, "first_landing_page_id"),
			belongsTo("campaign", TableCampaigns, "campaign_id"),
		},
	),
	newDescriptor("Message", TableMessages,
		[]Column{
			{"id", KindString},
			{"campaign_id", KindString},
			{"company_department_id", KindString},
			{"target_email", KindString},
			{"first_name", KindString},
			{"last_name", KindString},
			{"sent", KindTime},
			{"opened", KindTime},
			{"opener_ip", KindString},
			{"opener_user_agent", KindString},
			{"reported", KindTime},
			{"trained", KindBool},
			{"delivery_status", KindString},
		},
		[]Relationship{
			hasMany("credentials", TableCredentials, "message_id"),
			hasMany("visits", TableVisits, "message_id"),
			belongsTo("campaign", TableCampaigns, "campaign_id"),
			belongsTo("company_department", TableCompanyDepartments, "company_department_id"),
		},
	),
	newDescriptor("User", TableUsers,
		[]Column{
			{"id", KindString},
			{"name", KindString},
			{"email_address", KindString},
			{"phone_carrier", KindString},
			{"phone_number", KindString},
			{"otp_secret", KindString},
			{"access_level", KindInt},
			{"last_login", KindTime},
			{"expiration", KindTime},
		},
		[]Relationship{
			hasMany("alert_subscriptions", TableAlertSubscriptions, "user_id"),
			hasMany("campaigns", TableCampaigns, "user_id"),
		},
	),
	newDescriptor("Visit", TableVisits,
		[]Column{
			{"id", KindString},
			{"message_id", KindString},
			{"campaign_id", KindString},
			{"first_landing_page_id", KindString},
			{"visit_count", KindInt},
			{"ip", KindString},
			{"user_agent", KindString},
			{"first_seen", KindTime},
			{"last_seen", KindTime},
		},
		[]Relationship{
			hasMany("credentials", TableCredentials, "visit_id"),
			belongsTo("campaign", TableCampaigns, "campaign_id"),
			belongsTo("message", TableMessages, "message_id"),
		},
	),
)

// Tables returns the registry of exposed tables.
func Tables() *Registry {
	return registry
}

// Lookup returns the descriptor for the named table from the registry.
func Lookup(table string) (*Descriptor, bool) {
	return registry.Get(table)
}
