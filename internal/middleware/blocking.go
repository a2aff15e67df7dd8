package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/common/ctxkey"
)

// BlockRule is one per-project blocking rule: a request matches it when
// every non-empty field matches (logical AND), and a rule only ever
// tightens access, never widens it.
type BlockRule struct {
	Name      string
	Project   string
	IP        string
	Country   string
	UserAgent string
}

func (r BlockRule) matches(project, ip, country, userAgent string) bool {
	if r.Project != "" && r.Project != project {
		return false
	}
	if r.IP != "" && r.IP != ip {
		return false
	}
	if r.Country != "" && r.Country != country {
		return false
	}
	if r.UserAgent != "" && !strings.Contains(userAgent, r.UserAgent) {
		return false
	}
	return true
}

// BlockRuleSource resolves the set of blocking rules active for a project.
type BlockRuleSource interface {
	RulesFor(project string) []BlockRule
}

// BlockingRules evaluates the per-project blocking rules and
// short-circuits with a forbidden response on a match, recording the
// blocking event on the in-flight analytics record.
func BlockingRules(rules BlockRuleSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		project := c.Request.Header.Get("x-tensorzero-project-id")
		ip := c.GetString(ctxkey.ClientIP)
		country := c.GetString(ctxkey.Country)
		userAgent := c.Request.UserAgent()

		for _, rule := range rules.RulesFor(project) {
			if rule.matches(project, ip, country, userAgent) {
				if rec := recordFrom(c); rec != nil {
					rec.Mu.Lock()
					rec.Blocked = true
					rec.BlockRule = rule.Name
					rec.Mu.Unlock()
				}
				c.Header("x-block-reason", "blocking rule matched")
				c.Header("x-blocked-by-rule", rule.Name)
				abortWithStatus(c, http.StatusForbidden, "request blocked by rule: "+rule.Name)
				return
			}
		}

		c.Next()
	}
}
