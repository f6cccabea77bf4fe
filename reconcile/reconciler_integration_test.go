package reconcile_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/FantasticalEmbrace/hmherbs-catalog/config"
	"github.com/FantasticalEmbrace/hmherbs-catalog/models"
	"github.com/FantasticalEmbrace/hmherbs-catalog/reconcile"
	"github.com/shopspring/decimal"
)

func TestReconcilerEndToEnd(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "hmherbs_test")

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	db := config.GetDB()

	// Junk brand to be merged away, plus a near-duplicate twin of a real one.
	seedBrand := func(name string) int {
		b := models.Brand{Name: name, Slug: name}
		if err := db.Create(&b).Error; err != nil {
			t.Fatalf("seed brand %q: %v", name, err)
		}
		return b.ID
	}
	nowFoods := seedBrand("Now Foods")
	nowFoodsTwin := seedBrand("Now  Foods!")
	orphan := seedBrand("Ghost Brand")

	seed := func(name, price, desc string, brandId int) int {
		p := models.Product{
			Name:            name,
			Price:           decimal.RequireFromString(price),
			LongDescription: desc,
			BrandId:         brandId,
		}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed product %q: %v", name, err)
		}
		return p.ID
	}
	survivorId := seed("Now Foods Vitamin C", "19.99", "A well described vitamin C supplement from a trusted shelf.", 0)
	seed("Now Foods Vitamin C SKU: 12", "0", "", 0)
	seed("now-foods vitamin c", "25.00", strings.Repeat("x", 80), nowFoodsTwin)
	keeperId := seed("Milk Thistle", "12.00", "", 0)

	settings := &config.Settings{
		BrandRules: []config.ClassificationRule{
			{Label: "Now Foods", Keywords: []string{"now foods"}},
		},
		CategoryRules: []config.ClassificationRule{
			{Label: "Vitamins", Keywords: []string{"vitamin"}},
		},
		DescriptionLengthThreshold: 50,
		PlaceholderPrice:           "25.00",
		LabelMaxNameLength:         64,
	}

	reconciler := reconcile.NewReconciler(settings, config.GetLogger(), reconcile.NewMetrics())

	report, err := reconciler.Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	// survivor: non-zero non-placeholder price wins its partition
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		t.Fatalf("count products: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 surviving products, got %d", count)
	}
	var survivor models.Product
	if err := db.First(&survivor, survivorId).Error; err != nil {
		t.Fatalf("survivor deleted: %v", err)
	}
	var brand models.Brand
	if err := db.First(&brand, survivor.BrandId).Error; err != nil {
		t.Fatalf("survivor brand: %v", err)
	}
	if brand.Name != "Now Foods" || brand.ID != nowFoods {
		t.Fatalf("survivor brand = %q (id=%d), want Now Foods id=%d", brand.Name, brand.ID, nowFoods)
	}

	// keeper falls back to sentinels
	var keeper models.Product
	if err := db.First(&keeper, keeperId).Error; err != nil {
		t.Fatalf("keeper: %v", err)
	}
	var keeperBrand models.Brand
	if err := db.First(&keeperBrand, keeper.BrandId).Error; err != nil {
		t.Fatalf("keeper brand: %v", err)
	}
	if keeperBrand.Name != models.BrandNameUnknown {
		t.Fatalf("keeper brand = %q, want sentinel", keeperBrand.Name)
	}

	// twin merged into canonical, orphan label deleted, sentinels intact
	if err := db.First(&models.Brand{}, nowFoodsTwin).Error; err == nil {
		t.Fatalf("duplicate twin brand id=%d still present", nowFoodsTwin)
	}
	if err := db.First(&models.Brand{}, orphan).Error; err == nil {
		t.Fatalf("zero-reference brand id=%d still present", orphan)
	}
	if _, err := models.FindBrandByNameCI(ctx, models.BrandNameUnknown); err != nil {
		t.Fatalf("brand sentinel missing after compaction: %v", err)
	}
	if _, err := models.FindCategoryByNameCI(ctx, models.CategoryNameGeneral); err != nil {
		t.Fatalf("category sentinel missing after compaction: %v", err)
	}

	if report.DuplicatesDeleted != 2 {
		t.Fatalf("report.DuplicatesDeleted = %d, want 2", report.DuplicatesDeleted)
	}

	// Idempotence: a second pass is a no-op with a clean report.
	second, err := reconciler.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.Clean() {
		payload, _ := second.JSON()
		t.Fatalf("second run not clean:\n%s", payload)
	}
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("hmherbs-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=hmherbs_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
