package services_test

import (
	"testing"

	"bolsafeucn/internal/models"
	"bolsafeucn/internal/services"
	"bolsafeucn/internal/services/dto"
	"bolsafeucn/internal/testutil"
	"bolsafeucn/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewParties struct {
	student     *models.User
	offeror     *models.User
	publication *models.Publication
}

func newReviewParties(t *testing.T, f *fixture) reviewParties {
	t.Helper()
	offeror := testutil.CreateUser(t, f.db, models.UserRoleCompany, "rrhh@minera.cl")
	return reviewParties{
		student:     testutil.CreateUser(t, f.db, models.UserRoleStudent, "student@ucn.cl"),
		offeror:     offeror,
		publication: testutil.CreateOffer(t, f.db, offeror.ID, models.PublicationStatusClosed),
	}
}

// Полный двусторонний цикл отзыва
func TestReviewLifecycle(t *testing.T) {
	f := newFixture(t)
	p := newReviewParties(t, f)

	// 1. Пустой отзыв
	created, err := f.reviews.CreateInitialReview(f.ctx, f.db, &dto.CreateInitialReviewRequest{
		PublicationID: p.publication.ID,
		StudentID:     p.student.ID,
		OfferorID:     p.offeror.ID,
	})
	require.NoError(t, err)
	assert.False(t, created.IsCompleted)
	assert.Nil(t, created.RatingForStudent)
	assert.Nil(t, created.RatingForOfferor)
	t.Logf("Создан отзыв %d", created.ID)

	// 2. Оферент оценивает студента
	resp, err := f.reviews.SubmitStudentHalf(f.ctx, f.db, p.publication.ID, p.offeror.ID, &dto.StudentReviewRequest{
		Rating:           5,
		Comment:          "Muy responsable",
		AtTime:           true,
		GoodPresentation: true,
	})
	require.NoError(t, err)
	assert.True(t, resp.IsReviewForStudentCompleted)
	assert.False(t, resp.IsCompleted)
	require.NotNil(t, resp.StudentChecklist)
	assert.True(t, resp.StudentChecklist.AtTime)
	assert.False(t, resp.StudentChecklist.RespectfulWithOfferor)
	assertCompletionInvariant(t, f.reloadReview(t, created.ID))
	assert.InDelta(t, 5.0, f.ratingOf(t, p.student.ID), 0.001)

	// 3. Студент оценивает оферента
	resp, err = f.reviews.SubmitOfferorHalf(f.ctx, f.db, p.publication.ID, p.student.ID, &dto.OfferorReviewRequest{
		Rating:  4,
		Comment: "Buen ambiente",
	})
	require.NoError(t, err)
	assert.True(t, resp.IsCompleted)
	assertCompletionInvariant(t, f.reloadReview(t, created.ID))
	assert.InDelta(t, 4.0, f.ratingOf(t, p.offeror.ID), 0.001)

	// 4. Админ стирает половину, написанную студентом
	resp, err = f.reviews.AdminDeleteReviewPart(f.ctx, f.db, created.ID, &dto.DeleteReviewPartRequest{DeleteStudentPart: true})
	require.NoError(t, err)
	assert.Nil(t, resp.RatingForOfferor)
	assert.Nil(t, resp.CommentForOfferor)
	assert.False(t, resp.IsReviewForOfferorCompleted)
	assert.False(t, resp.IsCompleted)
	require.NotNil(t, resp.RatingForStudent)
	assert.Equal(t, 5, *resp.RatingForStudent)

	stored := f.reloadReview(t, created.ID)
	assertCompletionInvariant(t, stored)
	assert.Zero(t, f.ratingOf(t, p.offeror.ID), "Рейтинг оферента пересчитан без удаленной оценки")

	// 5. После удаления студент снова может оценить оферента
	_, err = f.reviews.SubmitOfferorHalf(f.ctx, f.db, p.publication.ID, p.student.ID, &dto.OfferorReviewRequest{Rating: 3})
	require.NoError(t, err)
	assertCompletionInvariant(t, f.reloadReview(t, created.ID))
}

// Повторная отправка своей половины не меняет сохраненную оценку
func TestSubmitHalf_OnlyOnce(t *testing.T) {
	f := newFixture(t)
	p := newReviewParties(t, f)
	review := testutil.CreateReview(t, f.db, p.publication.ID, p.student.ID, p.offeror.ID)

	_, err := f.reviews.SubmitOfferorHalf(f.ctx, f.db, p.publication.ID, p.student.ID, &dto.OfferorReviewRequest{Rating: 6})
	require.NoError(t, err)

	_, err = f.reviews.SubmitOfferorHalf(f.ctx, f.db, p.publication.ID, p.student.ID, &dto.OfferorReviewRequest{Rating: 1})
	assert.ErrorIs(t, err, apperrors.ErrReviewAlreadySubmitted)

	stored := f.reloadReview(t, review.ID)
	require.NotNil(t, stored.RatingForOfferor)
	assert.Equal(t, 6, *stored.RatingForOfferor)

	_, err = f.reviews.SubmitStudentHalf(f.ctx, f.db, p.publication.ID, p.offeror.ID, &dto.StudentReviewRequest{Rating: 2})
	require.NoError(t, err)
	_, err = f.reviews.SubmitStudentHalf(f.ctx, f.db, p.publication.ID, p.offeror.ID, &dto.StudentReviewRequest{Rating: 4})
	assert.ErrorIs(t, err, apperrors.ErrReviewAlreadySubmitted)

	stored = f.reloadReview(t, review.ID)
	assert.Equal(t, 2, *stored.RatingForStudent)
	assert.True(t, stored.IsCompleted)
}

func TestSubmitHalf_WrongParty(t *testing.T) {
	f := newFixture(t)
	p := newReviewParties(t, f)
	stranger := testutil.CreateUser(t, f.db, models.UserRoleStudent, "otro@ucn.cl")
	testutil.CreateReview(t, f.db, p.publication.ID, p.student.ID, p.offeror.ID)

	// Студент не может писать половину оферента и наоборот
	_, err := f.reviews.SubmitStudentHalf(f.ctx, f.db, p.publication.ID, p.student.ID, &dto.StudentReviewRequest{Rating: 5})
	assert.ErrorIs(t, err, apperrors.ErrNotReviewParty)

	_, err = f.reviews.SubmitOfferorHalf(f.ctx, f.db, p.publication.ID, p.offeror.ID, &dto.OfferorReviewRequest{Rating: 5})
	assert.ErrorIs(t, err, apperrors.ErrNotReviewParty)

	_, err = f.reviews.SubmitOfferorHalf(f.ctx, f.db, p.publication.ID, stranger.ID, &dto.OfferorReviewRequest{Rating: 5})
	assert.ErrorIs(t, err, apperrors.ErrNotReviewParty)
}

func TestSubmitHalf_RatingScale(t *testing.T) {
	f := newFixture(t)
	p := newReviewParties(t, f)
	testutil.CreateReview(t, f.db, p.publication.ID, p.student.ID, p.offeror.ID)

	for _, rating := range []int{0, 7, -1} {
		_, err := f.reviews.SubmitOfferorHalf(f.ctx, f.db, p.publication.ID, p.student.ID, &dto.OfferorReviewRequest{Rating: rating})
		assert.ErrorIs(t, err, apperrors.ErrInvalidRating, "rating %d", rating)
	}

	for _, rating := range []int{models.MinRating, models.MaxRating} {
		f := newFixture(t)
		p := newReviewParties(t, f)
		testutil.CreateReview(t, f.db, p.publication.ID, p.student.ID, p.offeror.ID)
		_, err := f.reviews.SubmitOfferorHalf(f.ctx, f.db, p.publication.ID, p.student.ID, &dto.OfferorReviewRequest{Rating: rating})
		assert.NoError(t, err, "rating %d", rating)
	}
}

func TestSubmitHalf_NoReview(t *testing.T) {
	f := newFixture(t)
	p := newReviewParties(t, f)

	_, err := f.reviews.SubmitOfferorHalf(f.ctx, f.db, p.publication.ID, p.student.ID, &dto.OfferorReviewRequest{Rating: 5})
	assert.ErrorIs(t, err, apperrors.ErrReviewNotFound)
}

func TestCreateInitialReview_Errors(t *testing.T) {
	f := newFixture(t)
	p := newReviewParties(t, f)

	req := &dto.CreateInitialReviewRequest{
		PublicationID: p.publication.ID,
		StudentID:     p.student.ID,
		OfferorID:     p.offeror.ID,
	}
	_, err := f.reviews.CreateInitialReview(f.ctx, f.db, req)
	require.NoError(t, err)

	_, err = f.reviews.CreateInitialReview(f.ctx, f.db, req)
	assert.ErrorIs(t, err, apperrors.ErrReviewAlreadyExists)

	_, err = f.reviews.CreateInitialReview(f.ctx, f.db, &dto.CreateInitialReviewRequest{
		PublicationID: p.publication.ID,
		StudentID:     p.student.ID,
		OfferorID:     p.student.ID,
	})
	assert.ErrorIs(t, err, apperrors.ErrSelfReviewNotAllowed)

	_, err = f.reviews.CreateInitialReview(f.ctx, f.db, &dto.CreateInitialReviewRequest{
		PublicationID: 9999,
		StudentID:     p.student.ID,
		OfferorID:     p.offeror.ID,
	})
	assert.ErrorIs(t, err, apperrors.ErrPublicationNotFound)
}

// Рейтинг - среднее по всем завершенным половинам, полученным пользователем
func TestRatingAggregation(t *testing.T) {
	f := newFixture(t)
	student := testutil.CreateUser(t, f.db, models.UserRoleStudent, "student@ucn.cl")
	companyA := testutil.CreateUser(t, f.db, models.UserRoleCompany, "a@empresa.cl")
	companyB := testutil.CreateUser(t, f.db, models.UserRoleCompany, "b@empresa.cl")

	pubA := testutil.CreateOffer(t, f.db, companyA.ID, models.PublicationStatusClosed)
	pubB := testutil.CreateOffer(t, f.db, companyB.ID, models.PublicationStatusClosed)
	testutil.CreateReview(t, f.db, pubA.ID, student.ID, companyA.ID)
	reviewB := testutil.CreateReview(t, f.db, pubB.ID, student.ID, companyB.ID)

	_, err := f.reviews.SubmitStudentHalf(f.ctx, f.db, pubA.ID, companyA.ID, &dto.StudentReviewRequest{Rating: 5})
	require.NoError(t, err)
	_, err = f.reviews.SubmitStudentHalf(f.ctx, f.db, pubB.ID, companyB.ID, &dto.StudentReviewRequest{Rating: 2})
	require.NoError(t, err)
	assert.InDelta(t, 3.5, f.ratingOf(t, student.ID), 0.001)

	// Админ стирает оценку компании B о студенте
	_, err = f.reviews.AdminDeleteReviewPart(f.ctx, f.db, reviewB.ID, &dto.DeleteReviewPartRequest{DeleteOfferorPart: true})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, f.ratingOf(t, student.ID), 0.001)

	stored := f.reloadReview(t, reviewB.ID)
	assert.Nil(t, stored.RatingForStudent)
	assert.Empty(t, stored.StudentChecklist)
	assertCompletionInvariant(t, stored)
}

func TestAdminDeleteReviewPart_Errors(t *testing.T) {
	f := newFixture(t)
	p := newReviewParties(t, f)
	review := testutil.CreateReview(t, f.db, p.publication.ID, p.student.ID, p.offeror.ID)

	_, err := f.reviews.AdminDeleteReviewPart(f.ctx, f.db, review.ID, &dto.DeleteReviewPartRequest{})
	assert.ErrorIs(t, err, apperrors.ErrNoReviewPartSelected)

	_, err = f.reviews.AdminDeleteReviewPart(f.ctx, f.db, 9999, &dto.DeleteReviewPartRequest{DeleteOfferorPart: true})
	assert.ErrorIs(t, err, apperrors.ErrReviewNotFound)
}

func TestPendingReviewsCount(t *testing.T) {
	f := newFixture(t)
	p := newReviewParties(t, f)
	testutil.CreateReview(t, f.db, p.publication.ID, p.student.ID, p.offeror.ID)

	// 1. Обе стороны должны по одной половине
	for _, id := range []uint{p.student.ID, p.offeror.ID} {
		count, err := f.reviews.GetPendingReviewsCount(f.ctx, f.db, id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	}

	// 2. Оферент закрыл свою половину
	_, err := f.reviews.SubmitStudentHalf(f.ctx, f.db, p.publication.ID, p.offeror.ID, &dto.StudentReviewRequest{Rating: 4})
	require.NoError(t, err)

	count, err := f.reviews.GetPendingReviewsCount(f.ctx, f.db, p.offeror.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	status, err := f.reviews.GetPendingStatus(f.ctx, f.db, p.student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.Count)
	assert.Equal(t, models.PendingReviewThreshold, status.Threshold)
	assert.False(t, status.Blocked)

	pending, err := f.reviews.ListPendingReviews(f.ctx, f.db, p.student.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	pending, err = f.reviews.ListPendingReviews(f.ctx, f.db, p.offeror.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGetReview_Visibility(t *testing.T) {
	f := newFixture(t)
	p := newReviewParties(t, f)
	admin := testutil.CreateUser(t, f.db, models.UserRoleAdmin, "admin@ucn.cl")
	stranger := testutil.CreateUser(t, f.db, models.UserRoleIndividual, "x@gmail.com")
	review := testutil.CreateReview(t, f.db, p.publication.ID, p.student.ID, p.offeror.ID)

	_, err := f.reviews.GetReview(f.ctx, f.db, review.ID, services.Viewer{UserID: p.student.ID, Role: p.student.Role})
	assert.NoError(t, err)

	_, err = f.reviews.GetReviewByPublication(f.ctx, f.db, p.publication.ID, services.Viewer{UserID: p.offeror.ID, Role: p.offeror.Role})
	assert.NoError(t, err)

	_, err = f.reviews.GetReview(f.ctx, f.db, review.ID, services.Viewer{UserID: admin.ID, Role: admin.Role})
	assert.NoError(t, err)

	_, err = f.reviews.GetReview(f.ctx, f.db, review.ID, services.Viewer{UserID: stranger.ID, Role: stranger.Role})
	assert.ErrorIs(t, err, apperrors.ErrReviewNotFound)

	mine, err := f.reviews.ListMyReviews(f.ctx, f.db, p.student.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := f.reviews.ListAllReviews(f.ctx, f.db, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), all.Total)
}
