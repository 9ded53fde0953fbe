package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/subelo/subelo/internal/lockout"
)

// accountUsage serves the lockout evaluation the client enforcement
// flow polls: the file snapshot plus the compliance report computed
// from it. While the report says over_limit the UI force-navigates to
// the remediation page and re-requests this after every deletion.
func (a *API) accountUsage(c *gin.Context) {
	user := currentUser(c)

	files, err := a.store.ListFilesByUser(user.ID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	snapshot := make([]lockout.FileStat, 0, len(files))
	for _, f := range files {
		snapshot = append(snapshot, lockout.FileStat{
			ID:        f.ID,
			Name:      f.Name,
			Size:      f.Size,
			Protected: f.HasPassword(),
		})
	}

	p := user.EffectivePlan(time.Now())
	report := lockout.Evaluate(p, p.Limits(), snapshot)

	c.JSON(http.StatusOK, gin.H{
		"plan":   string(p),
		"report": report,
		"files":  snapshot,
	})
}

func (a *API) listHistory(c *gin.Context) {
	entries, err := a.store.ListHistory(currentUser(c).ID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}
