// Package sqlstore keeps access rules, users and user attributes in a SQL
// database through gorm. It implements goStepUp.RuleStore and
// goStepUp.UserStore; user ids are UUID strings.
package sqlstore
