package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeisme/firmvault/pkg/errs"
	"github.com/yeisme/firmvault/pkg/middleware"
)

// SchedulerJobs 返回所有后台维护任务的信息.
func SchedulerJobs(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		respondError(c, errs.Internal(nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.GetJobInfos()})
}

// SchedulerStopJobs 停止所有后台维护任务.
func SchedulerStopJobs(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		respondError(c, errs.Internal(nil))
		return
	}

	if err := sched.StopJobs(); err != nil {
		respondError(c, errs.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "jobs stopped"})
}

// SchedulerRemoveJob 根据 id 删除后台维护任务.
func SchedulerRemoveJob(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		respondError(c, errs.Internal(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errs.Validation("Invalid job id"))
		return
	}

	if err := sched.RemoveJob(id); err != nil {
		respondError(c, errs.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job removed"})
}

// SchedulerQueueWaiting 返回队列中等待的任务数.
func SchedulerQueueWaiting(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		respondError(c, errs.Internal(nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{"waiting": sched.JobsWaitingInQueue()})
}
