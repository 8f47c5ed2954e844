package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/remal-github-actions/push-back/internal/git/gittest"
	gh "github.com/remal-github-actions/push-back/internal/github"
	"github.com/remal-github-actions/push-back/internal/identity"
	"github.com/remal-github-actions/push-back/internal/orchestrator"
	"github.com/remal-github-actions/push-back/internal/publish"
	"github.com/remal-github-actions/push-back/internal/remote"
)

func TestOrchestrator(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Orchestrator Suite")
}

func newOrchestrator(cfg orchestrator.Config, repo *gittest.FakeRepository) *orchestrator.Orchestrator {
	resolver := &identity.Resolver{
		GitHub:     gh.NewNoopClient(),
		Actor:      "octocat",
		Owner:      "owner",
		ServerHost: "github.com",
	}
	return orchestrator.New(
		cfg,
		repo,
		resolver,
		identity.NewManager(repo, nil),
		remote.NewManager(repo, nil),
		publish.New(repo, nil),
		nil,
	)
}

var _ = Describe("Orchestrator", func() {
	var (
		ctx  context.Context
		cfg  orchestrator.Config
		repo *gittest.FakeRepository
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = gittest.New()
		repo.Changed = []string{"generated.txt"}
		cfg = orchestrator.Config{
			Token:      "tok-123",
			ServerURL:  "https://github.com",
			Repository: "owner/repo",
			Message:    "chore: regenerate files",
			Committer:  identity.Identity{Name: "Push Back Bot", Email: "bot@example.com"},
		}
	})

	It("reports nothing-changed without mutating anything", func() {
		repo.Changed = nil

		result, err := newOrchestrator(cfg, repo).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Outcome).To(Equal(orchestrator.OutcomeNothingChanged))
		Expect(result.CommitSHA).To(BeEmpty())

		Expect(repo.CommitMsgs).To(BeEmpty())
		Expect(repo.StagedScopes).To(BeEmpty())
		Expect(repo.RemoteList).To(BeEmpty())
		Expect(repo.Config).To(BeEmpty())
	})

	It("commits and pushes when the remote branch does not exist yet", func() {
		result, err := newOrchestrator(cfg, repo).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Outcome).To(Equal(orchestrator.OutcomePushed))
		Expect(result.Branch).To(Equal("main"))
		Expect(result.CommitSHA).To(Equal("sha-1"))
		Expect(result.ChangedFiles).To(Equal([]string{"generated.txt"}))

		Expect(repo.CommitMsgs).To(Equal([]string{"chore: regenerate files"}))
		Expect(repo.PushRecords).To(HaveLen(1))
		Expect(repo.PushRecords[0].Remote).To(Equal(remote.Name))
		Expect(repo.PushRecords[0].Branch).To(Equal("main"))
		Expect(repo.PushRecords[0].Force).To(BeFalse())
	})

	It("removes the ephemeral remote and restores config after a successful push", func() {
		_, err := newOrchestrator(cfg, repo).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(repo.HasRemote(remote.Name)).To(BeFalse())
		Expect(repo.Config).NotTo(HaveKey("http.https://github.com/.extraheader"))
		Expect(repo.Config).NotTo(HaveKey("user.name"))
		Expect(repo.Config).NotTo(HaveKey("user.email"))
	})

	It("restores pre-existing committer config byte for byte", func() {
		repo.Config["user.name"] = "Prior Name"
		repo.Config["user.email"] = "prior@example.com"

		_, err := newOrchestrator(cfg, repo).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(repo.Config["user.name"]).To(Equal("Prior Name"))
		Expect(repo.Config["user.email"]).To(Equal("prior@example.com"))
	})

	It("skips the push when the remote branch tip diverged", func() {
		repo.Tips["main"] = "sha-somebody-else"

		result, err := newOrchestrator(cfg, repo).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Outcome).To(Equal(orchestrator.OutcomeRemoteChanged))

		Expect(repo.PushRecords).To(BeEmpty())
		Expect(repo.Tips["main"]).To(Equal("sha-somebody-else"))
		Expect(repo.HasRemote(remote.Name)).To(BeFalse())
		Expect(repo.Config).NotTo(HaveKey("user.name"))
	})

	It("pushes when the remote tip already matches the new commit", func() {
		repo.Tips["main"] = "sha-1"

		result, err := newOrchestrator(cfg, repo).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Outcome).To(Equal(orchestrator.OutcomePushed))
		Expect(repo.PushRecords).To(HaveLen(1))
	})

	It("force-pushes over a diverged remote tip", func() {
		repo.Tips["main"] = "sha-somebody-else"
		cfg.ForcePush = true

		result, err := newOrchestrator(cfg, repo).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Outcome).To(Equal(orchestrator.OutcomePushed))

		Expect(repo.PushRecords).To(HaveLen(1))
		Expect(repo.PushRecords[0].Force).To(BeTrue())
		Expect(repo.Tips["main"]).To(Equal("sha-1"))
	})

	It("fails on a reserved remote name collision but keeps the local commit", func() {
		repo.RemoteList = []string{remote.Name}

		_, err := newOrchestrator(cfg, repo).Run(ctx)
		Expect(err).To(MatchError(remote.ErrRemoteCollision))

		// The commit is made before remote setup and is intentionally not rolled back.
		Expect(repo.CommitMsgs).To(HaveLen(1))
		Expect(repo.PushRecords).To(BeEmpty())

		// Committer config is still restored by the cleanup phase.
		Expect(repo.Config).NotTo(HaveKey("user.name"))
		Expect(repo.Config).NotTo(HaveKey("user.email"))
	})

	It("infers the target branch from the checked-out branch", func() {
		repo.Branch = "feature/docs"

		result, err := newOrchestrator(cfg, repo).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Branch).To(Equal("feature/docs"))
		Expect(repo.PushRecords[0].Branch).To(Equal("feature/docs"))
	})

	It("prefers an explicit target branch over the checked-out one", func() {
		repo.Branch = "feature/docs"
		cfg.TargetBranch = "generated"

		result, err := newOrchestrator(cfg, repo).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Branch).To(Equal("generated"))
		Expect(repo.PushRecords[0].Branch).To(Equal("generated"))
	})

	It("fails fatally on a detached HEAD before any commit or remote work", func() {
		repo.Detached = true

		_, err := newOrchestrator(cfg, repo).Run(ctx)
		Expect(err).To(HaveOccurred())

		Expect(repo.CommitMsgs).To(BeEmpty())
		Expect(repo.RemoteList).To(BeEmpty())
		Expect(repo.Config).To(BeEmpty())
	})

	It("still cleans up when the push itself fails", func() {
		repo.FailPush = errors.New("transport broke")

		_, err := newOrchestrator(cfg, repo).Run(ctx)
		Expect(err).To(HaveOccurred())

		Expect(repo.HasRemote(remote.Name)).To(BeFalse())
		Expect(repo.Config).NotTo(HaveKey("http.https://github.com/.extraheader"))
		Expect(repo.Config).NotTo(HaveKey("user.name"))
	})

	It("synthesizes a committer identity from the actor when none is supplied", func() {
		repo.Tips["main"] = "sha-somebody-else"
		cfg.Committer = identity.Identity{}

		result, err := newOrchestrator(cfg, repo).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Outcome).To(Equal(orchestrator.OutcomeRemoteChanged))

		// Identity was applied for the commit and removed again afterwards.
		Expect(repo.CommitMsgs).To(HaveLen(1))
		Expect(repo.Config).NotTo(HaveKey("user.name"))
		Expect(repo.Config).NotTo(HaveKey("user.email"))
	})
})
